package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// ShareStore interface for dependency injection
type ShareStore interface {
	ShareTransaction(ctx context.Context, ownerID, transactionID string, userIDs []string) ([]domain.UserRef, error)
	SharedWith(ctx context.Context, ownerID, transactionID string) ([]domain.UserRef, error)
}

// ShareHandler handles the per-transaction sharing routes
type ShareHandler struct {
	store ShareStore
}

// NewShareHandler creates a new share handler
func NewShareHandler(store ShareStore) *ShareHandler {
	return &ShareHandler{store: store}
}

// Share handles POST /api/transactions/{id}/share. Owner only; recipients
// without an accepted invitation are silently skipped.
func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		UserIDs []string `json:"userIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.UserIDs) == 0 {
		http.Error(w, "userIds is required", http.StatusBadRequest)
		return
	}

	shared, err := h.store.ShareTransaction(r.Context(), userID, r.PathValue("id"), req.UserIDs)
	if err != nil {
		writeError(w, err, "Failed to share transaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sharedWith": shared})
}

// SharedWith handles GET /api/transactions/{id}/shared-with. Owner only.
func (h *ShareHandler) SharedWith(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	refs, err := h.store.SharedWith(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to fetch shares")
		return
	}

	writeJSON(w, http.StatusOK, refs)
}
