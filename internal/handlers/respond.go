// Package handlers contains HTTP request handlers for the guardian API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blockid/guardian-server/internal/services"
)

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with an error detail. The dashboard surfaces the detail
// string verbatim.
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Client mistakes keep their message; internal failures get a generic
// detail so storage internals never leak.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidHash):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrChainCorrupted):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrAnalyzerUnavailable):
		respondError(w, http.StatusServiceUnavailable, "Authenticity analysis is temporarily unavailable")
	default:
		respondError(w, http.StatusInternalServerError, "Internal storage failure")
	}
}
