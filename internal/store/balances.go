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

// CreateBalance appends a balance snapshot to an account the caller owns and
// refreshes the account's denormalized latest balance.
func (s *Store) CreateBalance(ctx context.Context, b *domain.AccountBalance) error {
	account, err := s.GetAccount(ctx, b.AccountID)
	if err != nil {
		return err
	}
	if !domain.CanMutate(account.UserID, b.UserID) {
		return fmt.Errorf("bank account %s belongs to another user: %w", b.AccountID, domain.ErrForbidden)
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = now
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO account_balances (id, account_id, user_id, balance, timestamp, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.AccountID, b.UserID, b.Balance, b.Timestamp, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create balance snapshot: %w", err)
	}

	return s.refreshLatestBalance(ctx, b.AccountID)
}

// GetBalance fetches a balance snapshot by ID regardless of owner; callers
// apply the ownership guard.
func (s *Store) GetBalance(ctx context.Context, id string) (*domain.AccountBalance, error) {
	var b domain.AccountBalance
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, user_id, balance, timestamp, created_at FROM account_balances WHERE id = ?`, id).
		Scan(&b.ID, &b.AccountID, &b.UserID, &b.Balance, &b.Timestamp, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("balance snapshot %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance snapshot %s: %w", id, err)
	}
	return &b, nil
}

// ListBalances returns the caller's balance snapshots, newest first.
// A non-empty accountID narrows the list to one account.
func (s *Store) ListBalances(ctx context.Context, userID, accountID string) ([]domain.AccountBalance, error) {
	query := `SELECT id, account_id, user_id, balance, timestamp, created_at
	          FROM account_balances WHERE user_id = ?`
	args := []any{userID}
	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance snapshots: %w", err)
	}
	defer rows.Close()

	balances := make([]domain.AccountBalance, 0)
	for rows.Next() {
		var b domain.AccountBalance
		if err := rows.Scan(&b.ID, &b.AccountID, &b.UserID, &b.Balance, &b.Timestamp, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance snapshot: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// UpdateBalance corrects a snapshot's balance and timestamp. Owner only.
func (s *Store) UpdateBalance(ctx context.Context, actingUserID string, b *domain.AccountBalance) error {
	current, err := s.GetBalance(ctx, b.ID)
	if err != nil {
		return err
	}
	if !domain.CanMutate(current.UserID, actingUserID) {
		return fmt.Errorf("balance snapshot %s belongs to another user: %w", b.ID, domain.ErrForbidden)
	}

	b.AccountID = current.AccountID
	b.UserID = current.UserID
	b.CreatedAt = current.CreatedAt
	if b.Timestamp.IsZero() {
		b.Timestamp = current.Timestamp
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE account_balances SET balance = ?, timestamp = ? WHERE id = ?`,
		b.Balance, b.Timestamp, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update balance snapshot %s: %w", b.ID, err)
	}

	return s.refreshLatestBalance(ctx, current.AccountID)
}

// DeleteBalance removes a snapshot. Owner only.
func (s *Store) DeleteBalance(ctx context.Context, actingUserID, id string) error {
	current, err := s.GetBalance(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(current.UserID, actingUserID) {
		return fmt.Errorf("balance snapshot %s belongs to another user: %w", id, domain.ErrForbidden)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM account_balances WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete balance snapshot %s: %w", id, err)
	}

	return s.refreshLatestBalance(ctx, current.AccountID)
}

// refreshLatestBalance recomputes the denormalized latest balance from the
// most recent remaining snapshot, 0 when none remain.
func (s *Store) refreshLatestBalance(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bank_accounts SET latest_balance = COALESCE(
			(SELECT balance FROM account_balances
			 WHERE account_id = ? ORDER BY timestamp DESC, created_at DESC LIMIT 1), 0)
		 WHERE id = ?`, accountID, accountID)
	if err != nil {
		return fmt.Errorf("failed to refresh latest balance for account %s: %w", accountID, err)
	}
	return nil
}
