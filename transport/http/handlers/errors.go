package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Request errors.
var (
	ErrEmptyBody       = stderrors.New("request body must be a JSON object")
	ErrInvalidKind     = stderrors.New("kind must be one of error, info, warn, success")
	ErrEmptyBatch      = stderrors.New("at least one alert must be specified")
	ErrBatchTooLarge   = stderrors.New("too many alerts in one batch")
	ErrInvalidLimit    = stderrors.New("limit must be a positive integer")
	ErrReportsDisabled = stderrors.New("report history is disabled")
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError writes an ErrorResponse.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	WriteJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}
