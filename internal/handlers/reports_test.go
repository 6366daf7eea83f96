package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
	"github.com/rumor-ml/commons.systems/fintrack/internal/reports"
)

// mockReportStore implements ReportStore for testing
type mockReportStore struct {
	records []domain.TransactionRecord
	filter  domain.TransactionFilter
	err     error
}

func (m *mockReportStore) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.TransactionRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.filter = f
	return m.records, nil
}

// TestReportSummary_Success verifies the summary over the caller's debits
func TestReportSummary_Success(t *testing.T) {
	mock := &mockReportStore{
		records: []domain.TransactionRecord{
			{Transaction: domain.Transaction{Date: "2024-01-15", Vendor: "Store", Amount: 60, Category: "Food", TransactionType: "debit"}},
			{Transaction: domain.Transaction{Date: "2024-01-20", Vendor: "Cinema", Amount: 40, Category: "Entertainment", TransactionType: "debit"}},
			{Transaction: domain.Transaction{Date: "2024-01-31", Vendor: "Employer", Amount: 5000, Category: "Income", TransactionType: "credit"}},
		},
	}
	handler := NewReportHandler(mock)
	req := requestWithAuth("user-123", "GET", "/api/reports/summary?startDate=2024-01-01&endDate=2024-01-31", "")
	w := httptest.NewRecorder()

	handler.Summary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var summary reports.Summary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(summary.Categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(summary.Categories))
	}
	if summary.Categories[0].Category != "Food" || summary.Categories[0].Total != 60 {
		t.Errorf("Top category = %+v, want Food 60", summary.Categories[0])
	}
	if len(summary.Monthly) != 1 || summary.Monthly[0].Month != "2024-01" || summary.Monthly[0].Total != 100 {
		t.Errorf("Monthly = %+v, want [2024-01 100]", summary.Monthly)
	}

	if mock.filter.StartDate != "2024-01-01" || mock.filter.EndDate != "2024-01-31" {
		t.Errorf("Date filter not forwarded: %+v", mock.filter)
	}
	if mock.filter.IncludeShared {
		t.Error("Reports must not include shared transactions")
	}
}

// TestReportSummary_StoreError verifies 500 on store failure
func TestReportSummary_StoreError(t *testing.T) {
	mock := &mockReportStore{err: fmt.Errorf("database locked")}
	handler := NewReportHandler(mock)
	req := requestWithAuth("user-123", "GET", "/api/reports/summary", "")
	w := httptest.NewRecorder()

	handler.Summary(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

// TestReportSummary_Unauthorized verifies 401 when userID missing
func TestReportSummary_Unauthorized(t *testing.T) {
	handler := NewReportHandler(&mockReportStore{})
	w := httptest.NewRecorder()

	handler.Summary(w, requestWithoutAuth())

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}
