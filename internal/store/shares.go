package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// ShareTransaction makes one transaction visible to the given users. Only
// the owner may share, and only with users connected to them by an accepted
// invitation; recipients without consent are silently skipped. Returns the
// users the transaction is now shared with, including ones it was already
// shared with before this call.
func (s *Store) ShareTransaction(ctx context.Context, ownerID, transactionID string, userIDs []string) ([]domain.UserRef, error) {
	t, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(t.UserID, ownerID) {
		return nil, fmt.Errorf("transaction %s belongs to another user: %w", transactionID, domain.ErrForbidden)
	}

	now := time.Now().UTC()
	shared := make([]domain.UserRef, 0, len(userIDs))
	for _, targetID := range userIDs {
		if targetID == ownerID {
			continue
		}

		ok, err := s.HasAcceptedInvitation(ctx, ownerID, targetID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		_, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO shared_transactions (id, transaction_id, shared_by_id, shared_with_id, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), transactionID, ownerID, targetID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to share transaction %s with %s: %w", transactionID, targetID, err)
		}

		ref, err := s.userRef(ctx, targetID)
		if err != nil {
			return nil, err
		}
		shared = append(shared, *ref)
	}
	return shared, nil
}

// SharedWith lists the users a transaction is shared with. Owner only.
func (s *Store) SharedWith(ctx context.Context, ownerID, transactionID string) ([]domain.UserRef, error) {
	t, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutate(t.UserID, ownerID) {
		return nil, fmt.Errorf("transaction %s belongs to another user: %w", transactionID, domain.ErrForbidden)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email
		 FROM shared_transactions st
		 JOIN users u ON u.id = st.shared_with_id
		 WHERE st.transaction_id = ?
		 ORDER BY u.name`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shares for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	refs := make([]domain.UserRef, 0)
	for rows.Next() {
		var ref domain.UserRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Email); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// BackfillShares shares every transaction the sharer owns with one recipient
// in a single set-based write. Existing share rows are skipped by the
// conflict clause, which makes repeat calls idempotent. Returns the number
// of share rows actually created.
func (s *Store) BackfillShares(ctx context.Context, sharedByID, sharedWithID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO shared_transactions (id, transaction_id, shared_by_id, shared_with_id, created_at)
		 SELECT lower(hex(randomblob(16))), id, ?, ?, ?
		 FROM transactions WHERE user_id = ?`,
		sharedByID, sharedWithID, time.Now().UTC(), sharedByID)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill shares from %s to %s: %w", sharedByID, sharedWithID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count backfilled shares: %w", err)
	}
	return int(n), nil
}
