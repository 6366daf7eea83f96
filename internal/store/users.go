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

// EnsureUser returns the user with the given ID, creating the row on first
// sight. Auth-provisioned users carry an empty password hash.
func (s *Store) EnsureUser(ctx context.Context, id, name, email string) (*domain.User, error) {
	u, err := s.GetUser(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, '', ?)`,
		id, name, email, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to provision user %s: %w", id, err)
	}

	return s.GetUser(ctx, id)
}

// CreateUser creates a locally provisioned user. The email must be unused.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	if name == "" || email == "" {
		return nil, fmt.Errorf("name and email are required: %w", domain.ErrValidation)
	}

	if _, err := s.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("user with email %s already exists: %w", email, domain.ErrDuplicate)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// GetUser fetches a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

// GetUserByEmail fetches a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

func (s *Store) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// userRef fetches the public projection of a user.
func (s *Store) userRef(ctx context.Context, id string) (*domain.UserRef, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}
