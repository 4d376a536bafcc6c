package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DaanHessen/rollwright/internal/engine"
	"github.com/DaanHessen/rollwright/internal/roller"
)

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// VersionResponse is the body of /version.
type VersionResponse struct {
	Version string `json:"version"`
}

// FunctionsResponse is the body of /v1/functions.
type FunctionsResponse struct {
	Functions []engine.FunctionDoc `json:"functions"`
}

// PresetRequest is the body of PUT /v1/presets/{name}.
type PresetRequest struct {
	Expression string `json:"expression"`
}

func handleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

func handleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, VersionResponse{Version: version})
	}
}

func handleRoll(svc roller.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		expr := r.URL.Query().Get("expr")
		if expr == "" {
			respondError(w, http.StatusBadRequest, ErrMsgMissingExpression)
			return
		}
		res, err := svc.Roll(r.Context(), expr)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

func handleDist(svc roller.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		expr := q.Get("expr")
		if expr == "" {
			respondError(w, http.StatusBadRequest, ErrMsgMissingExpression)
			return
		}
		var target *int
		if raw := q.Get("target"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, ErrMsgBadTarget)
				return
			}
			target = &n
		}
		res, err := svc.Distribution(r.Context(), expr, target)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

func handleFunctions(svc roller.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, FunctionsResponse{Functions: svc.Functions()})
	}
}

func handleHistory(svc roller.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				respondError(w, http.StatusBadRequest, ErrMsgBadLimit)
				return
			}
			limit = n
		}
		recs, err := svc.History(r.Context(), limit)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, recs)
	}
}

func handleListPresets(svc roller.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := svc.Presets(r.Context())
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, ps)
	}
}

func handleSavePreset(svc roller.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PresetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Expression == "" {
			respondError(w, http.StatusBadRequest, ErrMsgBadBody)
			return
		}
		if err := svc.SavePreset(r.Context(), chi.URLParam(r, "name"), req.Expression); err != nil {
			respondServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeletePreset(svc roller.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeletePreset(r.Context(), chi.URLParam(r, "name")); err != nil {
			respondServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
