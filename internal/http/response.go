package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jiangshan001/OpenISave/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Validation failures
// report the offending field; everything unexpected becomes a 500 without
// leaking internals.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": vErr.Message,
			"field": vErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, core.ErrNoAccounts):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no accounts found"})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
