package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/logger"
	"github.com/kart-io/alerthub/pkg/receipt"
)

// MaxBatchSize bounds the alerts accepted in one batch request.
const MaxBatchSize = 100

// BatchHandler dispatches several alerts in one request.
type BatchHandler struct {
	hub    Hub
	logger logger.Logger
}

// NewBatchHandler creates a batch handler.
func NewBatchHandler(h Hub, log logger.Logger) *BatchHandler {
	return &BatchHandler{hub: h, logger: logger.OrDiscard(log)}
}

// BatchRequest is the body of POST /alerts.
type BatchRequest struct {
	Alerts []BatchAlert `json:"alerts"`
}

// BatchAlert is one alert of a batch.
type BatchAlert struct {
	Kind  string      `json:"kind"`
	Event alert.Event `json:"event"`
}

// BatchItem is the outcome of one alert of a batch.
type BatchItem struct {
	Index  int             `json:"index"`
	Report *receipt.Report `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// BatchResponse lists every alert's outcome in request order.
type BatchResponse struct {
	Items     []BatchItem `json:"items"`
	Total     int         `json:"total"`
	Delivered int         `json:"delivered"`
	Failed    int         `json:"failed"`
}

// Handle validates the whole batch first, then dispatches the alerts in
// order. A failed alert does not stop the rest.
func (h *BatchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	if len(req.Alerts) == 0 {
		WriteError(w, r, http.StatusBadRequest, "INVALID_BODY", ErrEmptyBatch)
		return
	}
	if len(req.Alerts) > MaxBatchSize {
		WriteError(w, r, http.StatusRequestEntityTooLarge, "BATCH_TOO_LARGE", ErrBatchTooLarge)
		return
	}

	kinds := make([]alert.Kind, len(req.Alerts))
	for i, a := range req.Alerts {
		kind, err := alert.ParseKind(a.Kind)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "INVALID_KIND", ErrInvalidKind)
			return
		}
		if a.Event == nil {
			WriteError(w, r, http.StatusBadRequest, "INVALID_BODY", ErrEmptyBody)
			return
		}
		kinds[i] = kind
	}

	resp := BatchResponse{Items: make([]BatchItem, 0, len(req.Alerts)), Total: len(req.Alerts)}
	for i, a := range req.Alerts {
		report, err := h.hub.Dispatch(r.Context(), kinds[i], a.Event)
		item := BatchItem{Index: i, Report: report}
		if err != nil {
			item.Error = err.Error()
		}
		if report != nil && report.Success {
			resp.Delivered++
		} else {
			resp.Failed++
		}
		resp.Items = append(resp.Items, item)
	}
	h.logger.Info("Batch dispatched", "total", resp.Total, "delivered", resp.Delivered, "failed", resp.Failed)
	WriteJSON(w, http.StatusOK, resp)
}
