package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kart-io/alerthub/pkg/channel"
	"github.com/kart-io/alerthub/pkg/receipt"
)

// DefaultListLimit is the number of reports listed when no limit is given.
const DefaultListLimit = 20

// HealthHandler serves liveness, the channel list and the report history.
type HealthHandler struct {
	hub     Hub
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(h Hub) *HealthHandler {
	return &HealthHandler{hub: h, started: time.Now()}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Uptime      int64  `json:"uptime_seconds"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
	Channels    int    `json:"channels"`
}

// Health handles GET /healthz. It reports the process, it does not contact
// any channel.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	channels := h.hub.Channels()
	status := "healthy"
	if len(channels) == 0 {
		status = "degraded"
	}
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      int64(time.Since(h.started).Seconds()),
		Service:     h.hub.Service(),
		Environment: h.hub.Environment(),
		Channels:    len(channels),
	})
}

// ChannelsResponse is the body of GET /channels.
type ChannelsResponse struct {
	Channels []channel.Info `json:"channels"`
	Total    int            `json:"total"`
}

// Channels handles GET /channels.
func (h *HealthHandler) Channels(w http.ResponseWriter, r *http.Request) {
	channels := h.hub.Channels()
	WriteJSON(w, http.StatusOK, ChannelsResponse{Channels: channels, Total: len(channels)})
}

// ReportsResponse is the body of GET /reports.
type ReportsResponse struct {
	Reports []*receipt.Report `json:"reports"`
	Total   int               `json:"total"`
}

// Report handles GET /reports/{id}.
func (h *HealthHandler) Report(w http.ResponseWriter, r *http.Request) {
	store := h.hub.Store()
	if store == nil {
		WriteError(w, r, http.StatusNotFound, "REPORTS_DISABLED", ErrReportsDisabled)
		return
	}
	report, err := store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if stderrors.Is(err, receipt.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, "NOT_FOUND", err)
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "STORE_ERROR", err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// Reports handles GET /reports?limit=N, newest first.
func (h *HealthHandler) Reports(w http.ResponseWriter, r *http.Request) {
	store := h.hub.Store()
	if store == nil {
		WriteError(w, r, http.StatusNotFound, "REPORTS_DISABLED", ErrReportsDisabled)
		return
	}
	limit := DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "INVALID_LIMIT", ErrInvalidLimit)
			return
		}
		limit = n
	}
	reports, err := store.List(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "STORE_ERROR", err)
		return
	}
	WriteJSON(w, http.StatusOK, ReportsResponse{Reports: reports, Total: len(reports)})
}

// Metrics serves the hub's per-channel delivery counters.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.hub.Stats())
}
