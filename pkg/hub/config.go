package hub

import (
	"context"

	"github.com/kart-io/alerthub/pkg/config"
	"github.com/kart-io/alerthub/pkg/logger"
	"github.com/kart-io/alerthub/pkg/observability"
	"github.com/kart-io/alerthub/pkg/receipt"
)

// OptionsFromConfig maps f onto hub options. The report store and the
// telemetry named by f are created here; the hub owns the store afterwards,
// the caller owns the returned telemetry and must shut it down.
func OptionsFromConfig(ctx context.Context, f *config.File, log logger.Logger) ([]Option, *observability.Telemetry, error) {
	if log == nil {
		log = logger.New().LogMode(logger.ParseLevel(f.LogLevel, logger.Info))
	}

	opts := []Option{
		WithService(f.Service),
		WithEnvironment(f.Environment),
		WithFailSilently(f.IsFailSilently()),
		WithBeauty(f.IsBeauty()),
		WithSpecific(f.Specific...),
		WithStrictMode(f.StrictMode),
		WithHealthCheck(f.HealthCheck),
		WithLogger(log),
		WithChannels(f.Channels...),
	}
	if f.HealthCheckMessage != "" {
		opts = append(opts, WithHealthCheckMessage(f.HealthCheckMessage))
	}

	store, err := newStore(ctx, f.Receipts, log)
	if err != nil {
		return nil, nil, err
	}
	if store != nil {
		opts = append(opts, WithReceiptStore(store))
	}

	tcfg := f.Telemetry
	if tcfg.Environment == "" || tcfg.Environment == observability.DefaultConfig().Environment {
		tcfg.Environment = f.Environment
	}
	tel, err := observability.New(ctx, tcfg)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}
	opts = append(opts, WithTelemetry(tel))
	return opts, tel, nil
}

func newStore(ctx context.Context, r config.Receipts, log logger.Logger) (receipt.Store, error) {
	switch r.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendRedis:
		store, err := receipt.NewRedisStore(ctx, receipt.RedisOptions{
			URL:        r.RedisURL,
			KeyPrefix:  r.KeyPrefix,
			MaxEntries: r.MaxEntries,
			TTL:        r.TTL,
		}, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return receipt.NewMemoryStore(r.MaxEntries), nil
	}
}

// NewFromConfig builds a hub from f, with extra applied last.
func NewFromConfig(ctx context.Context, f *config.File, log logger.Logger, extra ...Option) (*Hub, *observability.Telemetry, error) {
	opts, tel, err := OptionsFromConfig(ctx, f, log)
	if err != nil {
		return nil, nil, err
	}
	h, err := New(append(opts, extra...)...)
	if err != nil {
		_ = tel.Shutdown(ctx)
		closeStore(opts)
		return nil, nil, err
	}
	return h, tel, nil
}

// closeStore releases the store carried by opts when hub construction fails.
func closeStore(opts []Option) {
	o := defaultOptions()
	for _, opt := range opts {
		_ = opt(o)
	}
	if o.Store != nil {
		_ = o.Store.Close()
	}
}
