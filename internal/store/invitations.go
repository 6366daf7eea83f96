package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/commons.systems/fintrack/internal/domain"
)

// CreateInvitation records a pending sharing invitation from the sender to
// an email address. Self-invites are rejected, and a sender may hold at most
// one pending invitation per email. When a user with the invited email
// already exists the invitation is linked to them immediately.
func (s *Store) CreateInvitation(ctx context.Context, senderID, email string) (*domain.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", domain.ErrValidation)
	}

	sender, err := s.GetUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(sender.Email, email) {
		return nil, fmt.Errorf("cannot invite yourself: %w", domain.ErrValidation)
	}

	var pendingID string
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM invitations WHERE sender_id = ? AND email = ? AND status = ?`,
		senderID, email, domain.InvitationPending).Scan(&pendingID)
	if err == nil {
		return nil, fmt.Errorf("pending invitation to %s already exists: %w", email, domain.ErrDuplicate)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check pending invitations: %w", err)
	}

	inv := &domain.Invitation{
		ID:        uuid.NewString(),
		Email:     email,
		Status:    domain.InvitationPending,
		SenderID:  senderID,
		CreatedAt: time.Now().UTC(),
	}
	if recipient, err := s.GetUserByEmail(ctx, email); err == nil {
		inv.RecipientID = recipient.ID
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO invitations (id, email, status, sender_id, recipient_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Email, inv.Status, inv.SenderID, nullable(inv.RecipientID), inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	return inv, nil
}

// GetInvitation fetches an invitation with its user projections. Only the
// sender, the linked recipient, or a caller whose email matches the invited
// address may see it.
func (s *Store) GetInvitation(ctx context.Context, userID, id string) (*domain.InvitationRecord, error) {
	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return nil, err
	}

	caller, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if inv.SenderID != userID && inv.RecipientID != userID && !strings.EqualFold(inv.Email, caller.Email) {
		return nil, fmt.Errorf("invitation %s is not addressed to you: %w", id, domain.ErrForbidden)
	}

	return s.attachRefs(ctx, inv)
}

// ListInvitations returns the caller's invitations, newest first. Kind is
// "sent", "received", or "all"; received covers both linked invitations and
// unlinked ones addressed to the caller's email.
func (s *Store) ListInvitations(ctx context.Context, userID, kind string) ([]domain.InvitationRecord, error) {
	caller, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var query string
	var args []any
	switch kind {
	case "sent":
		query = `SELECT id, email, status, sender_id, recipient_id, created_at FROM invitations
		         WHERE sender_id = ? ORDER BY created_at DESC`
		args = []any{userID}
	case "received":
		query = `SELECT id, email, status, sender_id, recipient_id, created_at FROM invitations
		         WHERE recipient_id = ? OR (recipient_id IS NULL AND email = ?) ORDER BY created_at DESC`
		args = []any{userID, strings.ToLower(caller.Email)}
	case "", "all":
		query = `SELECT id, email, status, sender_id, recipient_id, created_at FROM invitations
		         WHERE sender_id = ? OR recipient_id = ? OR (recipient_id IS NULL AND email = ?) ORDER BY created_at DESC`
		args = []any{userID, userID, strings.ToLower(caller.Email)}
	default:
		return nil, fmt.Errorf("unknown invitation list type %q: %w", kind, domain.ErrValidation)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitations: %w", err)
	}

	// Drain and close the cursor before attaching user refs: the pool holds
	// a single connection, and a nested query while the cursor is open would
	// wait on it forever.
	invitations := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read invitations: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to close invitation rows: %w", err)
	}

	records := make([]domain.InvitationRecord, 0, len(invitations))
	for _, inv := range invitations {
		rec, err := s.attachRefs(ctx, inv)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// RespondInvitation applies the recipient's accepted or rejected response.
// Responding to an unlinked invitation addressed to the caller's email links
// it to them. Re-accepting an accepted invitation is allowed and idempotent;
// rejected is terminal. The sharing backfill on accept is the caller's
// responsibility, keeping the two writes explicitly independent.
func (s *Store) RespondInvitation(ctx context.Context, userID, id string, status domain.InvitationStatus) (*domain.Invitation, error) {
	if !domain.ValidateResponseStatus(status) {
		return nil, fmt.Errorf("status must be accepted or rejected, got %q: %w", status, domain.ErrValidation)
	}

	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return nil, err
	}

	caller, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case inv.RecipientID == userID:
	case inv.RecipientID == "" && strings.EqualFold(inv.Email, caller.Email):
		inv.RecipientID = userID
	default:
		return nil, fmt.Errorf("invitation %s is not addressed to you: %w", id, domain.ErrForbidden)
	}

	switch inv.Status {
	case domain.InvitationPending:
	case domain.InvitationAccepted:
		if status != domain.InvitationAccepted {
			return nil, fmt.Errorf("invitation %s is already accepted: %w", id, domain.ErrValidation)
		}
	case domain.InvitationRejected:
		return nil, fmt.Errorf("invitation %s was rejected and cannot change: %w", id, domain.ErrValidation)
	}
	inv.Status = status

	_, err = s.db.ExecContext(ctx,
		`UPDATE invitations SET status = ?, recipient_id = ? WHERE id = ?`,
		inv.Status, nullable(inv.RecipientID), inv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation %s: %w", id, err)
	}
	return inv, nil
}

// ListAcceptedConnections returns the users connected to the caller through
// accepted invitations, in either direction.
func (s *Store) ListAcceptedConnections(ctx context.Context, userID string) ([]domain.UserRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT u.id, u.name, u.email
		 FROM invitations i
		 JOIN users u ON u.id = CASE WHEN i.sender_id = ? THEN i.recipient_id ELSE i.sender_id END
		 WHERE i.status = ? AND (i.sender_id = ? OR i.recipient_id = ?)
		 ORDER BY u.name`,
		userID, domain.InvitationAccepted, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.UserRef, 0)
	for rows.Next() {
		var ref domain.UserRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Email); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// HasAcceptedInvitation reports whether the two users are connected by an
// accepted invitation in either direction. Sharing consent rests on this.
func (s *Store) HasAcceptedInvitation(ctx context.Context, userA, userB string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invitations
		 WHERE status = ?
		   AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))`,
		domain.InvitationAccepted, userA, userB, userB, userA).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check invitation consent: %w", err)
	}
	return count > 0, nil
}

func (s *Store) getInvitation(ctx context.Context, id string) (*domain.Invitation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, status, sender_id, recipient_id, created_at FROM invitations WHERE id = ?`, id)
	inv, err := scanInvitation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invitation %s: %w", id, domain.ErrNotFound)
	}
	return inv, err
}

func scanInvitation(scan func(...any) error) (*domain.Invitation, error) {
	var inv domain.Invitation
	var recipientID sql.NullString
	err := scan(&inv.ID, &inv.Email, &inv.Status, &inv.SenderID, &recipientID, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan invitation: %w", err)
	}
	inv.RecipientID = recipientID.String
	return &inv, nil
}

// attachRefs decorates an invitation with its sender and recipient
// projections for API responses.
func (s *Store) attachRefs(ctx context.Context, inv *domain.Invitation) (*domain.InvitationRecord, error) {
	rec := &domain.InvitationRecord{Invitation: *inv}

	sender, err := s.userRef(ctx, inv.SenderID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	rec.Sender = sender

	if inv.RecipientID != "" {
		recipient, err := s.userRef(ctx, inv.RecipientID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		rec.Recipient = recipient
	}
	return rec, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
