package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/logger"
	"github.com/kart-io/alerthub/pkg/receipt"
)

// MaxBodyBytes bounds alert request bodies.
const MaxBodyBytes = 1 << 20

// SendHandler dispatches single alerts.
type SendHandler struct {
	hub    Hub
	logger logger.Logger
}

// NewSendHandler creates a send handler.
func NewSendHandler(h Hub, log logger.Logger) *SendHandler {
	return &SendHandler{hub: h, logger: logger.OrDiscard(log)}
}

// Send handles POST /alerts/{kind}. The body is the event object.
func (h *SendHandler) Send(w http.ResponseWriter, r *http.Request) {
	kind, err := alert.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "INVALID_KIND", ErrInvalidKind)
		return
	}

	var event alert.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&event); err != nil {
		WriteError(w, r, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	if event == nil {
		WriteError(w, r, http.StatusBadRequest, "INVALID_BODY", ErrEmptyBody)
		return
	}

	report, err := h.hub.Dispatch(r.Context(), kind, event)
	writeReport(w, r, report, err)
}

// HealthCheck handles POST /health-check.
func (h *SendHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.hub.HealthCheck(r.Context())
	writeReport(w, r, report, err)
}

// writeReport maps a dispatch outcome to a response. An aggregate failure
// still carries the report.
func writeReport(w http.ResponseWriter, r *http.Request, report *receipt.Report, err error) {
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, report)
	case errors.IsAggregateError(err) && report != nil:
		WriteJSON(w, http.StatusBadGateway, report)
	case errors.CodeOf(err) == errors.ErrInvalidMessage:
		WriteError(w, r, http.StatusBadRequest, string(errors.CodeOf(err)), err)
	default:
		WriteError(w, r, http.StatusInternalServerError, "DISPATCH_FAILED", err)
	}
}
