package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// mockAccountStore implements AccountStore and BalanceStore for testing
type mockAccountStore struct {
	accounts  []domain.BankAccount
	balances  []domain.AccountBalance
	deletedID string
	err       error
}

func (m *mockAccountStore) CreateAccount(ctx context.Context, a *domain.BankAccount) error {
	if m.err != nil {
		return m.err
	}
	a.ID = "acc-new"
	return nil
}

func (m *mockAccountStore) ListAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.accounts, nil
}

func (m *mockAccountStore) UpdateAccount(ctx context.Context, actingUserID string, a *domain.BankAccount) error {
	return m.err
}

func (m *mockAccountStore) DeleteAccount(ctx context.Context, actingUserID, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = id
	return nil
}

func (m *mockAccountStore) CreateBalance(ctx context.Context, b *domain.AccountBalance) error {
	if m.err != nil {
		return m.err
	}
	b.ID = "bal-new"
	return nil
}

func (m *mockAccountStore) ListBalances(ctx context.Context, userID, accountID string) ([]domain.AccountBalance, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.balances, nil
}

func (m *mockAccountStore) UpdateBalance(ctx context.Context, actingUserID string, b *domain.AccountBalance) error {
	return m.err
}

func (m *mockAccountStore) DeleteBalance(ctx context.Context, actingUserID, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = id
	return nil
}

// TestAccountCreate_Success verifies a 201 with the owner forced to the
// caller
func TestAccountCreate_Success(t *testing.T) {
	mock := &mockAccountStore{}
	handler := NewAccountHandler(mock)
	req := requestWithAuth("user-123", "POST", "/api/bank-accounts", `{"name":"Checking","accountType":"checking","bankName":"Test Bank"}`)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var result domain.BankAccount
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.ID != "acc-new" || result.UserID != "user-123" {
		t.Errorf("Unexpected account: %+v", result)
	}
}

// TestAccountList_Success verifies successful authenticated request
func TestAccountList_Success(t *testing.T) {
	mock := &mockAccountStore{
		accounts: []domain.BankAccount{
			{ID: "acc-1", UserID: "user-123", Name: "Checking", LatestBalance: 1200.50},
		},
	}
	handler := NewAccountHandler(mock)
	req := requestWithAuth("user-123", "GET", "/api/bank-accounts", "")
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var result []domain.BankAccount
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result) != 1 || result[0].LatestBalance != 1200.50 {
		t.Errorf("Unexpected accounts: %+v", result)
	}
}

// TestAccountUpdate_RequiresID verifies 400 without an ID
func TestAccountUpdate_RequiresID(t *testing.T) {
	handler := NewAccountHandler(&mockAccountStore{})
	req := requestWithAuth("user-123", "PUT", "/api/bank-accounts", `{"name":"Renamed"}`)
	w := httptest.NewRecorder()

	handler.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// TestAccountDelete_Forbidden verifies the ownership guard maps to 403
func TestAccountDelete_Forbidden(t *testing.T) {
	mock := &mockAccountStore{err: fmt.Errorf("%w: not the owner", domain.ErrForbidden)}
	handler := NewAccountHandler(mock)
	req := requestWithAuth("user-456", "DELETE", "/api/bank-accounts?id=acc-1", "")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

// TestBalanceCreate_Success verifies a 201 for a snapshot
func TestBalanceCreate_Success(t *testing.T) {
	mock := &mockAccountStore{}
	handler := NewBalanceHandler(mock)
	req := requestWithAuth("user-123", "POST", "/api/account-balances", `{"accountId":"acc-1","balance":950.25}`)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var result domain.AccountBalance
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.ID != "bal-new" || result.UserID != "user-123" {
		t.Errorf("Unexpected balance: %+v", result)
	}
}

// TestBalanceCreate_RequiresAccountID verifies 400 without an accountId
func TestBalanceCreate_RequiresAccountID(t *testing.T) {
	handler := NewBalanceHandler(&mockAccountStore{})
	req := requestWithAuth("user-123", "POST", "/api/account-balances", `{"balance":950.25}`)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// TestBalanceCreate_ForeignAccount verifies snapshots on someone else's
// account map to 403
func TestBalanceCreate_ForeignAccount(t *testing.T) {
	mock := &mockAccountStore{err: fmt.Errorf("%w: not the owner", domain.ErrForbidden)}
	handler := NewBalanceHandler(mock)
	req := requestWithAuth("user-456", "POST", "/api/account-balances", `{"accountId":"acc-1","balance":1}`)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

// TestBalanceList_Success verifies successful authenticated request
func TestBalanceList_Success(t *testing.T) {
	mock := &mockAccountStore{
		balances: []domain.AccountBalance{
			{ID: "bal-1", AccountID: "acc-1", UserID: "user-123", Balance: 900, Timestamp: time.Now()},
		},
	}
	handler := NewBalanceHandler(mock)
	req := requestWithAuth("user-123", "GET", "/api/account-balances?accountId=acc-1", "")
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var result []domain.AccountBalance
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result) != 1 || result[0].Balance != 900 {
		t.Errorf("Unexpected balances: %+v", result)
	}
}

// TestBalanceDelete_Success verifies a 204 and the store call
func TestBalanceDelete_Success(t *testing.T) {
	mock := &mockAccountStore{}
	handler := NewBalanceHandler(mock)
	req := requestWithAuth("user-123", "DELETE", "/api/account-balances?id=bal-1", "")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if mock.deletedID != "bal-1" {
		t.Errorf("Expected delete of bal-1, got %q", mock.deletedID)
	}
}
