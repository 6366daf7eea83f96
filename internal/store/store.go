// Package store persists fintrack entities in SQLite and enforces the
// ownership guard on every mutation.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle. One Store serves the whole process; the
// connection pool is capped at a single connection because SQLite allows
// one writer at a time.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and runs
// the schema migration. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date             TEXT NOT NULL,
	vendor           TEXT NOT NULL,
	amount           REAL NOT NULL,
	category         TEXT NOT NULL,
	transaction_type TEXT NOT NULL,
	created_at       TIMESTAMP NOT NULL,
	UNIQUE (user_id, date, vendor, amount, transaction_type)
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date
	ON transactions(user_id, date);

CREATE TABLE IF NOT EXISTS bank_accounts (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	account_type   TEXT NOT NULL DEFAULT '',
	bank_name      TEXT NOT NULL DEFAULT '',
	account_number TEXT NOT NULL DEFAULT '',
	routing_number TEXT NOT NULL DEFAULT '',
	notes          TEXT NOT NULL DEFAULT '',
	latest_balance REAL NOT NULL DEFAULT 0,
	created_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS account_balances (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES bank_accounts(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	balance    REAL NOT NULL,
	timestamp  TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_account_balances_account
	ON account_balances(account_id, timestamp);

CREATE TABLE IF NOT EXISTS invitations (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL,
	status       TEXT NOT NULL,
	sender_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	recipient_id TEXT,
	created_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS shared_transactions (
	id             TEXT PRIMARY KEY,
	transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
	shared_by_id   TEXT NOT NULL,
	shared_with_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at     TIMESTAMP NOT NULL,
	UNIQUE (transaction_id, shared_with_id)
);

CREATE INDEX IF NOT EXISTS idx_shared_transactions_with
	ON shared_transactions(shared_with_id);
`
