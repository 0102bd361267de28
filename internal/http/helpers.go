package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tiffin/internal/core"
)

const maxBodyBytes = 1 << 20 // 1MB

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 500 {
		slog.ErrorContext(r.Context(), "Request failed", "status", status, "url", r.URL.Path, "error", msg)
	}
	respondJSON(w, status, errorBody{Error: msg})
}

// respondServiceError maps domain errors onto HTTP statuses. Anything not in
// the taxonomy is a 500 with a generic body.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrForbidden):
		respondError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrEmailTaken):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, core.ErrNoMatchingRecords),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrRangeTooLarge),
		errors.Is(err, core.ErrInvalidWeekday),
		errors.Is(err, core.ErrInvalidDateSpec),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidMealType),
		errors.Is(err, core.ErrInvalidCount),
		errors.Is(err, core.ErrInvalidRole),
		errors.Is(err, core.ErrInvalidAmount):
		respondError(w, r, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Unhandled service error", "url", r.URL.Path, "error", err)
		respondError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
