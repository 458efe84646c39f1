// Package hub fans one alert out to every configured channel concurrently
// and aggregates the outcomes into a receipt.Report.
package hub

import (
	"context"
	"io"
	"sync"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/channels/builtin"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/logger"
	"github.com/kart-io/alerthub/pkg/monitoring"
	"github.com/kart-io/alerthub/pkg/observability"
	"github.com/kart-io/alerthub/pkg/receipt"
)

// entry is a constructed channel with its configuration resolved once.
type entry struct {
	tag      string
	adapter  channel.Adapter
	config   channel.Config
	specific []alert.FieldSpec
}

// Hub owns an ordered list of channels and dispatches alerts to all of them.
// It is safe for concurrent use; management calls never affect a dispatch
// that is already in flight.
type Hub struct {
	mu       sync.RWMutex
	channels []*entry

	common        channel.Common
	failSilently  bool
	strict        bool
	healthMessage string

	registry  *channel.Registry
	logger    logger.Logger
	telemetry *observability.Telemetry
	store     receipt.Store
	stats     *monitoring.Metrics

	healthDone chan struct{}
}

// New builds a Hub from opts. Descriptors with an unknown type are skipped
// with a warning. A descriptor whose adapter cannot be built is skipped too
// when failing silently, otherwise New returns the configuration error.
func New(opts ...Option) (*Hub, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.Registry == nil {
		o.Registry = builtin.Registry()
	}
	if o.Telemetry == nil {
		o.Telemetry = observability.Noop()
	}
	if o.Logger == nil {
		o.Logger = logger.New()
	}

	h := &Hub{
		common:        o.common(),
		failSilently:  o.FailSilently,
		strict:        o.StrictMode,
		healthMessage: o.HealthCheckMessage,
		registry:      o.Registry,
		logger:        o.Logger,
		telemetry:     o.Telemetry,
		stats:         monitoring.NewMetrics(),
		store:         o.Store,
		healthDone:    make(chan struct{}),
	}

	entries, err := h.buildAll(o.Channels)
	if err != nil {
		return nil, err
	}
	h.channels = entries

	h.logger.Info("Alert hub initialized",
		"service", h.common.Service,
		"environment", h.common.Environment,
		"channels", len(entries),
		"fail_silently", h.failSilently,
		"strict_mode", h.strict)

	if o.HealthCheck {
		go h.backgroundHealthCheck()
	} else {
		close(h.healthDone)
	}
	return h, nil
}

// backgroundHealthCheck never propagates its failure; it is only logged.
func (h *Hub) backgroundHealthCheck() {
	defer close(h.healthDone)
	report, err := h.HealthCheck(context.Background())
	switch {
	case err != nil:
		h.logger.Warn("Health check failed", "error", err)
	case report != nil && !report.Success && report.Summary.Total > 0:
		h.logger.Warn("Health check reached no channel", "failed", report.Summary.Failed)
	default:
		h.logger.Debug("Health check sent")
	}
}

// HealthCheckDone is closed once the construction-time health check has
// finished, or immediately when none was requested.
func (h *Hub) HealthCheckDone() <-chan struct{} { return h.healthDone }

// build constructs one channel. It returns (nil, nil) for descriptors that
// must be skipped.
func (h *Hub) build(d channel.Descriptor) (*entry, error) {
	tag := channel.NormalizeType(d.Type)
	factory, ok := h.registry.Lookup(tag)
	if !ok {
		h.logger.Warn("Unknown channel type, skipping",
			"type", d.Type,
			"available", h.registry.Types())
		return nil, nil
	}

	cfg := channel.Resolve(h.common, d.Config)
	adapter, err := factory(cfg, h.logger)
	if err == nil && adapter == nil {
		err = errors.NewConfigurationError(tag, "factory returned no adapter")
	}
	if err != nil {
		if !errors.IsConfigurationError(err) {
			err = errors.NewConfigurationError(tag, "failed to create channel").WithDetails(err.Error()).WithCause(err)
		}
		if h.failSilently {
			h.logger.Warn("Channel could not be created, skipping", "type", tag, "error", err)
			return nil, nil
		}
		return nil, err
	}

	return &entry{
		tag:      tag,
		adapter:  adapter,
		config:   cfg,
		specific: cfg.Specific(),
	}, nil
}

func (h *Hub) buildAll(descriptors []channel.Descriptor) ([]*entry, error) {
	entries := make([]*entry, 0, len(descriptors))
	for _, d := range descriptors {
		e, err := h.build(d)
		if err != nil {
			return nil, err
		}
		if e != nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// snapshot copies the channel list so a dispatch is isolated from later
// management calls.
func (h *Hub) snapshot() []*entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*entry, len(h.channels))
	copy(out, h.channels)
	return out
}

// Store returns the report store, or nil when reports are not kept.
func (h *Hub) Store() receipt.Store { return h.store }

// Stats returns the delivery counters accumulated since the hub was created.
func (h *Hub) Stats() monitoring.Snapshot { return h.stats.Snapshot() }

// Service returns the global service name.
func (h *Hub) Service() string { return h.common.Service }

// Environment returns the global environment label.
func (h *Hub) Environment() string { return h.common.Environment }

// Close releases adapters that hold resources and the report store.
func (h *Hub) Close() error {
	h.mu.Lock()
	channels := h.channels
	h.channels = nil
	h.mu.Unlock()

	var firstErr error
	for _, e := range channels {
		if c, ok := e.adapter.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
