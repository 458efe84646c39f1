package receipt

import (
	"context"
	stderrors "errors"
	"sync"
)

// ErrNotFound is returned when a report ID is unknown to a store.
var ErrNotFound = stderrors.New("report not found")

// DefaultMaxEntries bounds report history when no limit is configured.
const DefaultMaxEntries = 1000

// Store keeps recent dispatch reports.
type Store interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	// List returns up to limit reports, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*Report, error)
	Close() error
}

// MemoryStore is a bounded in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	max     int
	order   []string
	reports map[string]*Report
}

// NewMemoryStore creates a store keeping at most max reports.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &MemoryStore{max: max, reports: make(map[string]*Report)}
}

// Save stores r, evicting the oldest report when full.
func (s *MemoryStore) Save(_ context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	s.reports[r.ID] = r
	for len(s.order) > s.max {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

// Get returns the report with id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// List returns up to limit reports, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*Report, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.reports[s.order[i]])
	}
	return out, nil
}

// Len returns the number of stored reports.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
