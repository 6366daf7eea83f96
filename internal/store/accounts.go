package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// CreateAccount stores a bank account. ID and CreatedAt are assigned here
// when unset.
func (s *Store) CreateAccount(ctx context.Context, a *domain.BankAccount) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bank_accounts (id, user_id, name, account_type, bank_name, account_number, routing_number, notes, latest_balance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.AccountType, a.BankName, a.AccountNumber, a.RoutingNumber, a.Notes, a.LatestBalance, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bank account: %w", err)
	}
	return nil
}

// GetAccount fetches a bank account by ID regardless of owner; callers apply
// the ownership guard.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.BankAccount, error) {
	var a domain.BankAccount
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, account_type, bank_name, account_number, routing_number, notes, latest_balance, created_at
		 FROM bank_accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.UserID, &a.Name, &a.AccountType, &a.BankName, &a.AccountNumber, &a.RoutingNumber, &a.Notes, &a.LatestBalance, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bank account %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account %s: %w", id, err)
	}
	return &a, nil
}

// ListAccounts returns the caller's bank accounts with their denormalized
// latest balances, newest first.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, account_type, bank_name, account_number, routing_number, notes, latest_balance, created_at
		 FROM bank_accounts WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.BankAccount, 0)
	for rows.Next() {
		var a domain.BankAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.AccountType, &a.BankName, &a.AccountNumber, &a.RoutingNumber, &a.Notes, &a.LatestBalance, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount replaces the mutable fields of a bank account. Owner only.
// The latest balance is maintained by the balance snapshot writes, not here.
func (s *Store) UpdateAccount(ctx context.Context, actingUserID string, a *domain.BankAccount) error {
	current, err := s.GetAccount(ctx, a.ID)
	if err != nil {
		return err
	}
	if !domain.CanMutate(current.UserID, actingUserID) {
		return fmt.Errorf("bank account %s belongs to another user: %w", a.ID, domain.ErrForbidden)
	}

	a.UserID = current.UserID
	a.CreatedAt = current.CreatedAt
	a.LatestBalance = current.LatestBalance
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE bank_accounts SET name = ?, account_type = ?, bank_name = ?, account_number = ?, routing_number = ?, notes = ? WHERE id = ?`,
		a.Name, a.AccountType, a.BankName, a.AccountNumber, a.RoutingNumber, a.Notes, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update bank account %s: %w", a.ID, err)
	}
	return nil
}

// DeleteAccount removes a bank account and, via the schema cascade, its
// balance snapshots. Owner only.
func (s *Store) DeleteAccount(ctx context.Context, actingUserID, id string) error {
	current, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(current.UserID, actingUserID) {
		return fmt.Errorf("bank account %s belongs to another user: %w", id, domain.ErrForbidden)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM bank_accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete bank account %s: %w", id, err)
	}
	return nil
}
