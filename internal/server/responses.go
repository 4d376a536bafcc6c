package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DaanHessen/rollwright/internal/engine"
	"github.com/DaanHessen/rollwright/internal/roller"
	"github.com/DaanHessen/rollwright/internal/store"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	ErrMsgMissingExpression = "query parameter expr is required"
	ErrMsgBadTarget         = "target must be a whole number"
	ErrMsgBadLimit          = "limit must be a positive whole number"
	ErrMsgBadBody           = "body must be JSON like {\"expression\": \"2d6\"}"
	ErrMsgNotFound          = "not found"
	ErrMsgTimeout           = "request timed out"
	ErrMsgServerError       = "server error occurred, please try again"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps service errors onto status codes. Parse errors carry
// their user-facing message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *engine.ParseError
	switch {
	case errors.As(err, &pe):
		respondError(w, http.StatusBadRequest, pe.Error())
	case errors.Is(err, roller.ErrInvalidPresetName):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrMsgNotFound)
	case errors.Is(err, roller.ErrHistoryDisabled), errors.Is(err, roller.ErrPresetsDisabled):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respondError(w, http.StatusServiceUnavailable, ErrMsgTimeout)
	default:
		slog.ErrorContext(r.Context(), "Unhandled service error", "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgServerError)
	}
}
