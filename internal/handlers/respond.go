// Package handlers implements the HTTP API endpoints. Each handler group
// declares the store operations it needs as a small interface so tests can
// substitute mocks.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
	"github.com/rumor-ml/commons.systems/fintrack/internal/middleware"
)

// currentUser extracts the authenticated user ID or ends the request with
// a 401. Requests reach handlers through RequireAuth, so a miss here means
// a wiring bug, not a client error.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// writeError maps the domain error taxonomy to HTTP statuses. Unclassified
// errors become a 500 with a generic message; the detail goes to the log,
// not the client.
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrDuplicate):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("ERROR: %s: %v", fallback, err)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}
