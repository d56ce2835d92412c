package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/coinkeeper/backend/internal/models"
)

// ClaimRegistry stores claim records and owns the status transition out of
// pending. Finalization is a compare-and-swap keyed on claim id: the UPDATE
// only matches while status is still pending, so of any number of concurrent
// resolvers exactly one wins and the rest observe ErrAlreadyFinalized.
type ClaimRegistry struct {
	db *sql.DB
}

func NewClaimRegistry(db *sql.DB) *ClaimRegistry {
	return &ClaimRegistry{db: db}
}

// Create inserts a new claim in state pending.
func (s *ClaimRegistry) Create(ctx context.Context, accountID, itemRef string, declaredValue int64) (*models.Claim, error) {
	if declaredValue < 0 {
		return nil, ErrInvalidValue
	}

	claim := models.Claim{
		AccountID:     accountID,
		ItemRef:       itemRef,
		DeclaredValue: declaredValue,
		Status:        models.ClaimPending,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO claims (account_id, item_ref, declared_value, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, created_at`,
		accountID, itemRef, declaredValue).
		Scan(&claim.ID, &claim.CreatedAt)
	if err != nil {
		return nil, storeErr("create claim", err)
	}

	log.Printf("[REGISTRY] Claim %d created for account %s (item %s, value %d)",
		claim.ID, accountID, itemRef, declaredValue)
	return &claim, nil
}

// Get returns the claim or ErrClaimNotFound.
func (s *ClaimRegistry) Get(ctx context.Context, claimID int64) (*models.Claim, error) {
	var claim models.Claim
	var resolvedBy sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, item_ref, declared_value, status, created_at, resolved_at, resolved_by
		FROM claims
		WHERE id = $1`, claimID).
		Scan(&claim.ID, &claim.AccountID, &claim.ItemRef, &claim.DeclaredValue,
			&claim.Status, &claim.CreatedAt, &claim.ResolvedAt, &resolvedBy)
	if err == sql.ErrNoRows {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, storeErr("read claim", err)
	}
	claim.ResolvedBy = resolvedBy.String
	return &claim, nil
}

// List returns claims filtered by status, newest first. An empty status
// returns every claim. Used by reviewers to work the pending queue.
func (s *ClaimRegistry) List(ctx context.Context, status models.ClaimStatus, limit int) ([]models.Claim, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, account_id, item_ref, declared_value, status, created_at, resolved_at, resolved_by
		FROM claims`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list claims", err)
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		var claim models.Claim
		var resolvedBy sql.NullString
		if err := rows.Scan(&claim.ID, &claim.AccountID, &claim.ItemRef, &claim.DeclaredValue,
			&claim.Status, &claim.CreatedAt, &claim.ResolvedAt, &resolvedBy); err != nil {
			return nil, storeErr("scan claim", err)
		}
		claim.ResolvedBy = resolvedBy.String
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

// TryFinalize atomically transitions the claim out of pending. It either
// wins the compare-and-swap and returns the updated claim, or reports
// ErrAlreadyFinalized (or ErrClaimNotFound) with no change.
func (s *ClaimRegistry) TryFinalize(ctx context.Context, claimID int64, outcome models.ClaimStatus, resolvedBy string) (*models.Claim, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin", err)
	}
	defer tx.Rollback()

	claim, err := tryFinalizeTx(ctx, tx, claimID, outcome, resolvedBy)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit", err)
	}
	return claim, nil
}

func tryFinalizeTx(ctx context.Context, tx *sql.Tx, claimID int64, outcome models.ClaimStatus, resolvedBy string) (*models.Claim, error) {
	if !outcome.Terminal() {
		return nil, fmt.Errorf("invalid finalize outcome: %s", outcome)
	}

	now := time.Now()
	var claim models.Claim
	err := tx.QueryRowContext(ctx, `
		UPDATE claims
		SET status = $1, resolved_at = $2, resolved_by = $3
		WHERE id = $4 AND status = 'pending'
		RETURNING id, account_id, item_ref, declared_value, status, created_at`,
		string(outcome), now, resolvedBy, claimID).
		Scan(&claim.ID, &claim.AccountID, &claim.ItemRef, &claim.DeclaredValue,
			&claim.Status, &claim.CreatedAt)
	if err == sql.ErrNoRows {
		// CAS missed: the claim is gone or somebody else got here first.
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM claims WHERE id = $1`, claimID).Scan(&status)
		if err == sql.ErrNoRows {
			return nil, ErrClaimNotFound
		}
		if err != nil {
			return nil, storeErr("read claim", err)
		}
		return nil, ErrAlreadyFinalized
	}
	if err != nil {
		return nil, storeErr("finalize claim", err)
	}

	claim.ResolvedAt = &now
	claim.ResolvedBy = resolvedBy
	return &claim, nil
}
