package models

import "time"

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimAccepted ClaimStatus = "accepted"
	ClaimRejected ClaimStatus = "rejected"
)

// Terminal reports whether the status can never transition again.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimAccepted || s == ClaimRejected
}

// Claim is a pending or resolved request to convert an external item
// reference into a balance change. Rows are never deleted.
type Claim struct {
	ID            int64       `json:"id" db:"id"`
	AccountID     string      `json:"account_id" db:"account_id"`
	ItemRef       string      `json:"item_ref" db:"item_ref"`
	DeclaredValue int64       `json:"declared_value" db:"declared_value"`
	Status        ClaimStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	ResolvedAt    *time.Time  `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy    string      `json:"resolved_by,omitempty" db:"resolved_by"`
}
