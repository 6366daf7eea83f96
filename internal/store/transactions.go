package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// DuplicateError reports a composite-key conflict on single-transaction
// create, carrying the ID of the already-stored row. It unwraps to
// domain.ErrDuplicate so callers can map it to a conflict response.
type DuplicateError struct {
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate transaction (existing id %s)", e.ExistingID)
}

func (e *DuplicateError) Unwrap() error {
	return domain.ErrDuplicate
}

// CreateTransaction stores a single transaction. The ID and CreatedAt are
// assigned here when unset. A composite-key conflict returns a
// *DuplicateError instead of storing anything.
func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM transactions
		 WHERE user_id = ? AND date = ? AND vendor = ? AND amount = ? AND transaction_type = ?`,
		t.UserID, t.Date, t.Vendor, t.Amount, t.TransactionType).Scan(&existingID)
	if err == nil {
		return &DuplicateError{ExistingID: existingID}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, date, vendor, amount, category, transaction_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Date, t.Vendor, t.Amount, t.Category, t.TransactionType, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ExistingKeys returns the composite duplicate keys of every transaction the
// user owns, for seeding a duplicate detector.
func (s *Store) ExistingKeys(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, vendor, amount, transaction_type FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var date, vendor, transactionType string
		var amount float64
		if err := rows.Scan(&date, &vendor, &amount, &transactionType); err != nil {
			return nil, fmt.Errorf("failed to scan transaction key: %w", err)
		}
		keys = append(keys, domain.CompositeKey(date, vendor, amount, transactionType))
	}
	return keys, rows.Err()
}

// ImportTransactions bulk-inserts screened candidates for one user with
// skip-on-conflict semantics and returns the number of rows actually
// created. The whole batch runs in one transaction.
func (s *Store) ImportTransactions(ctx context.Context, userID string, candidates []domain.Candidate) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO transactions (id, user_id, date, vendor, amount, category, transaction_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	created := 0
	for _, c := range candidates {
		res, err := stmt.ExecContext(ctx, uuid.NewString(), userID, c.Date, c.Vendor, c.Amount, c.Category, c.TransactionType, now)
		if err != nil {
			return 0, fmt.Errorf("failed to import transaction %s/%s: %w", c.Date, c.Vendor, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count imported rows: %w", err)
		}
		created += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return created, nil
}

// GetTransaction fetches a transaction by ID regardless of owner; callers
// apply the ownership guard.
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, vendor, amount, category, transaction_type, created_at
		 FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.UserID, &t.Date, &t.Vendor, &t.Amount, &t.Category, &t.TransactionType, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return &t, nil
}

// ListTransactions returns the caller's transactions, newest date first.
// With IncludeShared set, rows shared with the caller are appended and
// annotated with the sharer.
func (s *Store) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.TransactionRecord, error) {
	where, args := buildFilter(f)

	owned, err := s.queryRecords(ctx,
		`SELECT t.id, t.user_id, t.date, t.vendor, t.amount, t.category, t.transaction_type, t.created_at,
		        u.id, u.name, u.email, NULL, NULL, NULL
		 FROM transactions t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.user_id = ?`+where,
		append([]any{userID}, args...)...)
	if err != nil {
		return nil, err
	}

	records := owned
	if f.IncludeShared {
		shared, err := s.queryRecords(ctx,
			`SELECT t.id, t.user_id, t.date, t.vendor, t.amount, t.category, t.transaction_type, t.created_at,
			        u.id, u.name, u.email, sb.id, sb.name, sb.email
			 FROM shared_transactions st
			 JOIN transactions t ON t.id = st.transaction_id
			 JOIN users u ON u.id = t.user_id
			 JOIN users sb ON sb.id = st.shared_by_id
			 WHERE st.shared_with_id = ?`+where,
			append([]any{userID}, args...)...)
		if err != nil {
			return nil, err
		}
		records = append(records, shared...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
	return records, nil
}

// buildFilter renders the optional transaction filters as SQL conjuncts
// against the aliased transactions table.
func buildFilter(f domain.TransactionFilter) (string, []any) {
	var where string
	var args []any

	if f.Category != "" {
		where += " AND t.category = ?"
		args = append(args, f.Category)
	}
	if f.Vendor != "" {
		where += " AND t.vendor = ?"
		args = append(args, f.Vendor)
	}
	if f.TransactionType != "" {
		where += " AND t.transaction_type = ?"
		args = append(args, f.TransactionType)
	}
	if f.Amount != nil {
		where += " AND t.amount = ?"
		args = append(args, *f.Amount)
	}
	if f.StartDate != "" {
		where += " AND t.date >= ?"
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where += " AND t.date <= ?"
		args = append(args, f.EndDate)
	}
	return where, args
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]domain.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	records := make([]domain.TransactionRecord, 0)
	for rows.Next() {
		var r domain.TransactionRecord
		var sharedByID, sharedByName, sharedByEmail sql.NullString
		err := rows.Scan(
			&r.ID, &r.UserID, &r.Date, &r.Vendor, &r.Amount, &r.Category, &r.TransactionType, &r.CreatedAt,
			&r.Owner.ID, &r.Owner.Name, &r.Owner.Email,
			&sharedByID, &sharedByName, &sharedByEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if sharedByID.Valid {
			r.IsShared = true
			r.SharedBy = &domain.UserRef{ID: sharedByID.String, Name: sharedByName.String, Email: sharedByEmail.String}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// UpdateTransaction replaces the mutable fields of a transaction. Only the
// owner may update; anyone else gets ErrForbidden and no row changes.
func (s *Store) UpdateTransaction(ctx context.Context, actingUserID string, t *domain.Transaction) error {
	current, err := s.GetTransaction(ctx, t.ID)
	if err != nil {
		return err
	}
	if !domain.CanMutate(current.UserID, actingUserID) {
		return fmt.Errorf("transaction %s belongs to another user: %w", t.ID, domain.ErrForbidden)
	}

	t.UserID = current.UserID
	t.CreatedAt = current.CreatedAt
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, vendor = ?, amount = ?, category = ?, transaction_type = ? WHERE id = ?`,
		t.Date, t.Vendor, t.Amount, t.Category, t.TransactionType, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", t.ID, err)
	}
	return nil
}

// DeleteTransaction removes a transaction and, via the schema cascade, its
// share rows. Owner only.
func (s *Store) DeleteTransaction(ctx context.Context, actingUserID, id string) error {
	current, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(current.UserID, actingUserID) {
		return fmt.Errorf("transaction %s belongs to another user: %w", id, domain.ErrForbidden)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return nil
}
