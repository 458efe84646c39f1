package receipt

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kart-io/alerthub/pkg/logger"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	URL        string
	KeyPrefix  string
	MaxEntries int
	TTL        time.Duration
}

// RedisStore keeps reports in Redis: one JSON value per report plus a list
// of IDs, newest first, trimmed to MaxEntries.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	max       int
	ttl       time.Duration
	logger    logger.Logger
}

// NewRedisStore connects to the Redis server at opts.URL.
func NewRedisStore(ctx context.Context, opts RedisOptions, log logger.Logger) (*RedisStore, error) {
	ro, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStoreFromClient(client, opts, log), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, opts RedisOptions, log logger.Logger) *RedisStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "alerthub:"
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	log = logger.OrDiscard(log)
	log.Info("Redis report store ready", "prefix", opts.KeyPrefix, "max_entries", opts.MaxEntries)
	return &RedisStore{
		client:    client,
		keyPrefix: opts.KeyPrefix,
		max:       opts.MaxEntries,
		ttl:       opts.TTL,
		logger:    log,
	}
}

func (s *RedisStore) reportKey(id string) string { return s.keyPrefix + "report:" + id }
func (s *RedisStore) indexKey() string           { return s.keyPrefix + "reports" }

// Save stores r and trims the history.
func (s *RedisStore) Save(ctx context.Context, r *Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.reportKey(r.ID), data, s.ttl)
	pipe.LPush(ctx, s.indexKey(), r.ID)
	pipe.LTrim(ctx, s.indexKey(), 0, int64(s.max-1))
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Failed to save report", "id", r.ID, "error", err)
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Get loads the report with id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Report, error) {
	data, err := s.client.Get(ctx, s.reportKey(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}

// List returns up to limit reports, newest first. Reports that expired but
// are still indexed are skipped.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*Report, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.LRange(ctx, s.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	out := make([]*Report, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if stderrors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error { return s.client.Close() }
