package models

import "time"

// Account is the per-user coin ledger record. Accounts are created lazily on
// first reference and never deleted.
type Account struct {
	ID           string    `json:"id" db:"id"`
	Balance      int64     `json:"balance" db:"balance"`
	MessageCount int64     `json:"message_count" db:"message_count"`
	ClaimedCount int64     `json:"claimed_count" db:"claimed_count"`
	Version      int       `json:"version" db:"version"` // for optimistic locking
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
