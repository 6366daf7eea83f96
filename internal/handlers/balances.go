package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// BalanceStore interface for dependency injection
type BalanceStore interface {
	CreateBalance(ctx context.Context, b *domain.AccountBalance) error
	ListBalances(ctx context.Context, userID, accountID string) ([]domain.AccountBalance, error)
	UpdateBalance(ctx context.Context, actingUserID string, b *domain.AccountBalance) error
	DeleteBalance(ctx context.Context, actingUserID, id string) error
}

// BalanceHandler handles the /api/account-balances routes
type BalanceHandler struct {
	store BalanceStore
}

// NewBalanceHandler creates a new balance snapshot handler
func NewBalanceHandler(store BalanceStore) *BalanceHandler {
	return &BalanceHandler{store: store}
}

// Create handles POST /api/account-balances
func (h *BalanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var b domain.AccountBalance
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if b.AccountID == "" {
		http.Error(w, "accountId is required", http.StatusBadRequest)
		return
	}
	b.ID = ""
	b.UserID = userID

	if err := h.store.CreateBalance(r.Context(), &b); err != nil {
		writeError(w, err, "Failed to create balance snapshot")
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

// List handles GET /api/account-balances?accountId=
func (h *BalanceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	balances, err := h.store.ListBalances(r.Context(), userID, r.URL.Query().Get("accountId"))
	if err != nil {
		writeError(w, err, "Failed to fetch balance snapshots")
		return
	}

	writeJSON(w, http.StatusOK, balances)
}

// Update handles PUT /api/account-balances. Owner only.
func (h *BalanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var b domain.AccountBalance
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if b.ID == "" {
		http.Error(w, "Balance id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateBalance(r.Context(), userID, &b); err != nil {
		writeError(w, err, "Failed to update balance snapshot")
		return
	}

	writeJSON(w, http.StatusOK, b)
}

// Delete handles DELETE /api/account-balances?id=. Owner only.
func (h *BalanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Balance id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteBalance(r.Context(), userID, id); err != nil {
		writeError(w, err, "Failed to delete balance snapshot")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
