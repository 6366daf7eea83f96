package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// AccountStore interface for dependency injection
type AccountStore interface {
	CreateAccount(ctx context.Context, a *domain.BankAccount) error
	ListAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error)
	UpdateAccount(ctx context.Context, actingUserID string, a *domain.BankAccount) error
	DeleteAccount(ctx context.Context, actingUserID, id string) error
}

// AccountHandler handles the /api/bank-accounts routes
type AccountHandler struct {
	store AccountStore
}

// NewAccountHandler creates a new bank account handler
func NewAccountHandler(store AccountStore) *AccountHandler {
	return &AccountHandler{store: store}
}

// Create handles POST /api/bank-accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var a domain.BankAccount
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	a.ID = ""
	a.UserID = userID

	if err := h.store.CreateAccount(r.Context(), &a); err != nil {
		writeError(w, err, "Failed to create bank account")
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

// List handles GET /api/bank-accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.store.ListAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to fetch bank accounts")
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

// Update handles PUT /api/bank-accounts. Owner only.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var a domain.BankAccount
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if a.ID == "" {
		http.Error(w, "Account id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateAccount(r.Context(), userID, &a); err != nil {
		writeError(w, err, "Failed to update bank account")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// Delete handles DELETE /api/bank-accounts?id=. Owner only; balances
// cascade.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Account id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteAccount(r.Context(), userID, id); err != nil {
		writeError(w, err, "Failed to delete bank account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
