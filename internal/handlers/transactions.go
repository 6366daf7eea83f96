package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rumor-ml/commons.systems/fintrack/internal/dedupe"
	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
	"github.com/rumor-ml/commons.systems/fintrack/internal/store"
)

// TransactionStore interface for dependency injection
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	ExistingKeys(ctx context.Context, userID string) ([]string, error)
	ImportTransactions(ctx context.Context, userID string, candidates []domain.Candidate) (int, error)
	ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.TransactionRecord, error)
	UpdateTransaction(ctx context.Context, actingUserID string, t *domain.Transaction) error
	DeleteTransaction(ctx context.Context, actingUserID, id string) error
}

// TransactionHandler handles the /api/transactions routes
type TransactionHandler struct {
	store TransactionStore
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(store TransactionStore) *TransactionHandler {
	return &TransactionHandler{store: store}
}

// Create handles POST /api/transactions. The body is either a single
// transaction object or an array; an array gets batch semantics with
// per-record validation skips and duplicate counting.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if isJSONArray(body) {
		h.createBatch(w, r, userID, body)
		return
	}
	h.createSingle(w, r, userID, body)
}

func (h *TransactionHandler) createSingle(w http.ResponseWriter, r *http.Request, userID string, body []byte) {
	var t domain.Transaction
	if err := json.Unmarshal(body, &t); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	t.ID = ""
	t.UserID = userID

	if err := h.store.CreateTransaction(r.Context(), &t); err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":       "Duplicate transaction",
				"duplicateId": dup.ExistingID,
			})
			return
		}
		writeError(w, err, "Failed to create transaction")
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

func (h *TransactionHandler) createBatch(w http.ResponseWriter, r *http.Request, userID string, body []byte) {
	var batch []domain.Candidate
	if err := json.Unmarshal(body, &batch); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	existing, err := h.store.ExistingKeys(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to load existing transactions")
		return
	}

	accepted, stats := dedupe.NewDetector(existing).Screen(batch)
	if stats.Total == 0 {
		http.Error(w, "No valid transactions in batch", http.StatusBadRequest)
		return
	}

	created, err := h.store.ImportTransactions(r.Context(), userID, accepted)
	if err != nil {
		writeError(w, err, "Failed to import transactions")
		return
	}

	// The store skips rows that raced in since the duplicate screen, so its
	// count is the authoritative one
	stats.Skipped += stats.Created - created
	stats.Created = created

	writeJSON(w, http.StatusCreated, stats)
}

// List handles GET /api/transactions with the optional filters category,
// vendor, transactionType, amount, startDate, endDate, includeShared.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.TransactionFilter{
		Category:        q.Get("category"),
		Vendor:          q.Get("vendor"),
		TransactionType: q.Get("transactionType"),
		StartDate:       q.Get("startDate"),
		EndDate:         q.Get("endDate"),
		IncludeShared:   q.Get("includeShared") == "true",
	}
	if raw := q.Get("amount"); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "Invalid amount filter", http.StatusBadRequest)
			return
		}
		filter.Amount = &amount
	}

	records, err := h.store.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err, "Failed to fetch transactions")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// Update handles PUT /api/transactions. Owner only.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var t domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if t.ID == "" {
		http.Error(w, "Transaction id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateTransaction(r.Context(), userID, &t); err != nil {
		writeError(w, err, "Failed to update transaction")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/transactions?id=. Owner only.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Transaction id is required", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteTransaction(r.Context(), userID, id); err != nil {
		writeError(w, err, "Failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// isJSONArray reports whether the body's first significant byte opens an
// array.
func isJSONArray(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
