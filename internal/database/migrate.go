package database

import (
	"database/sql"
	"fmt"
)

// Schema bootstrap, applied idempotently at startup. Accounts are created
// lazily and never deleted; claims are retained after resolution.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            TEXT PRIMARY KEY,
		balance       BIGINT NOT NULL DEFAULT 0,
		message_count BIGINT NOT NULL DEFAULT 0,
		claimed_count BIGINT NOT NULL DEFAULT 0,
		version       INTEGER NOT NULL DEFAULT 1,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS claims (
		id             BIGSERIAL PRIMARY KEY,
		account_id     TEXT NOT NULL REFERENCES accounts(id),
		item_ref       TEXT NOT NULL,
		declared_value BIGINT NOT NULL CHECK (declared_value >= 0),
		status         TEXT NOT NULL DEFAULT 'pending'
		               CHECK (status IN ('pending', 'accepted', 'rejected')),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_at    TIMESTAMPTZ,
		resolved_by    TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_status ON claims (status)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_account ON claims (account_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id           SERIAL PRIMARY KEY,
		email        TEXT NOT NULL UNIQUE,
		password     TEXT NOT NULL,
		display_name TEXT NOT NULL,
		account_id   TEXT NOT NULL,
		role         TEXT NOT NULL DEFAULT 'user',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate applies the schema statements in order.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
