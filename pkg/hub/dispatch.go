package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/receipt"
)

// Dispatch sends event to every channel concurrently and waits for all of
// them to settle. Results are reported in channel-list order.
//
// The report is always returned. When the hub does not fail silently and at
// least one channel failed, an aggregate error is returned alongside it.
func (h *Hub) Dispatch(ctx context.Context, kind alert.Kind, event alert.Event) (*receipt.Report, error) {
	if !kind.Valid() {
		return nil, errors.New(errors.ErrInvalidMessage, "unknown alert kind").WithDetails(string(kind))
	}

	channels := h.snapshot()
	report := receipt.New(kind)
	ctx, span := h.telemetry.StartDispatch(ctx, string(kind), len(channels))

	results := make([]receipt.Result, len(channels))
	var wg sync.WaitGroup
	for i, e := range channels {
		wg.Add(1)
		go func(i int, e *entry) {
			defer wg.Done()
			results[i] = h.deliver(ctx, i, e, kind, event)
		}(i, e)
	}
	wg.Wait()

	report.Complete(results)
	h.stats.RecordDispatch()
	h.telemetry.RecordDispatch(ctx, span, string(kind), report.Summary.Successful, report.Summary.Failed)

	for _, res := range report.Errors {
		h.logger.Error("Channel delivery failed", "channel", res.Type, "kind", kind, "error", res.Error)
	}
	h.logger.Info("Alert dispatched",
		"kind", kind,
		"report_id", report.ID,
		"total", report.Summary.Total,
		"successful", report.Summary.Successful,
		"failed", report.Summary.Failed)

	if h.store != nil {
		if err := h.store.Save(ctx, report); err != nil {
			h.logger.Warn("Failed to store report", "report_id", report.ID, "error", err)
		}
	}

	if report.Summary.Failed > 0 && !h.failSilently {
		return report, errors.NewAggregateError(string(kind), report.Summary.Failed, report.Summary.Total)
	}
	return report, nil
}

// deliver sends one channel's copy of event. A panicking adapter is
// recorded as a failure of that channel only.
func (h *Hub) deliver(ctx context.Context, index int, e *entry, kind alert.Kind, event alert.Event) (res receipt.Result) {
	res.Type = e.tag
	payload := alert.Filter(event, e.specific, h.strict)

	ctx, span := h.telemetry.StartDelivery(ctx, e.tag, string(kind), index)
	start := time.Now()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			res.Success = false
			res.Delivery = nil
			res.Error = err.Error()
		}
		res.Duration = time.Since(start)
		h.telemetry.RecordDelivery(ctx, span, e.tag, string(kind), res.Duration, err)
		h.stats.RecordSend(e.tag, res.Success, res.Duration, res.Error)
	}()

	delivery, err := e.adapter.Send(ctx, kind, payload)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.Delivery = delivery
	h.logger.Debug("Channel delivered", "channel", e.tag, "kind", kind)
	return res
}

// Error dispatches event with kind error.
func (h *Hub) Error(ctx context.Context, event alert.Event) (*receipt.Report, error) {
	return h.Dispatch(ctx, alert.KindError, event)
}

// Info dispatches event with kind info.
func (h *Hub) Info(ctx context.Context, event alert.Event) (*receipt.Report, error) {
	return h.Dispatch(ctx, alert.KindInfo, event)
}

// Warn dispatches event with kind warn.
func (h *Hub) Warn(ctx context.Context, event alert.Event) (*receipt.Report, error) {
	return h.Dispatch(ctx, alert.KindWarn, event)
}

// Success dispatches event with kind success.
func (h *Hub) Success(ctx context.Context, event alert.Event) (*receipt.Report, error) {
	return h.Dispatch(ctx, alert.KindSuccess, event)
}

// HealthCheck dispatches a synthetic info alert describing the hub.
func (h *Hub) HealthCheck(ctx context.Context) (*receipt.Report, error) {
	event := alert.Event{
		"message":        h.healthMessage,
		"status":         "HEALTHY",
		"service":        h.common.Service,
		"environment":    h.common.Environment,
		"channels_count": h.ChannelCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"health_check":   true,
	}
	return h.Dispatch(ctx, alert.KindInfo, event)
}
