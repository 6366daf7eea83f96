package handlers

import (
	"context"
	"net/http"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
	"github.com/rumor-ml/commons.systems/fintrack/internal/reports"
)

// ReportStore interface for dependency injection
type ReportStore interface {
	ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.TransactionRecord, error)
}

// ReportHandler handles the /api/reports routes
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a spending report handler
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// Summary handles GET /api/reports/summary. Reports cover the caller's own
// transactions only; shared rows belong to someone else's spending.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	filter := domain.TransactionFilter{
		StartDate: r.URL.Query().Get("startDate"),
		EndDate:   r.URL.Query().Get("endDate"),
	}

	records, err := h.store.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err, "Failed to fetch transactions")
		return
	}

	writeJSON(w, http.StatusOK, reports.Summarize(records))
}
