package channel

import (
	"context"
	"sync"
	"time"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/logger"
)

// MockCall records one invocation of Mock.Send.
type MockCall struct {
	Kind  alert.Kind
	Event alert.Event
	At    time.Time
}

// Mock is a scriptable in-memory adapter for tests and dry runs.
type Mock struct {
	mu       sync.Mutex
	calls    []MockCall
	delivery *Delivery
	err      error
	delay    time.Duration
	panicVal any
	config   Config
}

// NewMock creates a Mock that succeeds immediately.
func NewMock() *Mock {
	return &Mock{delivery: &Delivery{MessageID: "mock"}}
}

// WithError makes every send fail with err.
func (m *Mock) WithError(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithDelay makes every send take d, or until the context is done.
func (m *Mock) WithDelay(d time.Duration) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithDelivery sets the delivery returned on success.
func (m *Mock) WithDelivery(d *Delivery) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivery = d
	return m
}

// WithPanic makes every send panic with v.
func (m *Mock) WithPanic(v any) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicVal = v
	return m
}

// Send records the call and replays the scripted outcome.
func (m *Mock) Send(ctx context.Context, kind alert.Kind, event alert.Event) (*Delivery, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Kind: kind, Event: event.Clone(), At: time.Now()})
	delay, err, delivery, panicVal := m.delay, m.err, m.delivery, m.panicVal
	m.mu.Unlock()

	if panicVal != nil {
		panic(panicVal)
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of sends so far.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Config returns the effective configuration the mock was built with.
func (m *Mock) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// MockFactory returns a Factory that always yields m, capturing the
// effective configuration it was built with.
func MockFactory(m *Mock) Factory {
	return func(cfg Config, _ logger.Logger) (Adapter, error) {
		m.mu.Lock()
		m.config = cfg
		m.mu.Unlock()
		return m, nil
	}
}
