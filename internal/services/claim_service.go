package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/coinkeeper/backend/internal/config"
	"github.com/coinkeeper/backend/internal/models"
)

// ClaimService orchestrates the two-phase claim workflow: a user submits a
// claim, an authorized reviewer accepts or rejects it, and acceptance debits
// the declared value from the user's balance.
//
// Resolution runs finalize, debit and the claimed counter bump in a single
// database transaction. The claim row is locked first, then the account row,
// always in that order. The balance check happens before the status
// compare-and-swap, so an insufficient balance leaves the claim pending and
// the ledger untouched. No lock is held across the notification hand-off.
type ClaimService struct {
	db       *sql.DB
	ledger   *LedgerService
	registry *ClaimRegistry
	notifier NotificationSink
	policy   *config.ClaimPolicy
}

func NewClaimService(db *sql.DB, ledger *LedgerService, registry *ClaimRegistry, notifier NotificationSink, policy *config.ClaimPolicy) *ClaimService {
	if policy == nil {
		policy = config.LoadClaimPolicy()
	}
	return &ClaimService{
		db:       db,
		ledger:   ledger,
		registry: registry,
		notifier: notifier,
		policy:   policy,
	}
}

// SubmissionResult is returned to the transport for rendering.
type SubmissionResult struct {
	Claim *models.Claim `json:"claim"`
}

// ResolutionResult reports the outcome of a resolve call. AlreadyFinalized
// is set when another resolver won the race; that is an expected answer
// under double-clicks, not an error.
type ResolutionResult struct {
	Claim            *models.Claim `json:"claim"`
	AlreadyFinalized bool          `json:"already_finalized"`
	NewBalance       int64         `json:"new_balance,omitempty"`
}

// Submit parses and validates the declared value, then records a pending
// claim for the account.
func (s *ClaimService) Submit(ctx context.Context, accountID, itemRef, declaredValueText string) (*SubmissionResult, error) {
	itemRef = strings.TrimSpace(itemRef)
	if itemRef == "" {
		return nil, fmt.Errorf("%w: item reference is required", ErrInvalidValue)
	}

	declaredValue, err := strconv.ParseInt(strings.TrimSpace(declaredValueText), 10, 64)
	if err != nil {
		return nil, ErrMalformedValue
	}
	if declaredValue < 0 || declaredValue > s.policy.MaxDeclaredValue {
		return nil, ErrInvalidValue
	}

	if s.policy.CheckBalanceOnSubmit {
		account, err := s.ledger.Read(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if account.Balance < declaredValue {
			return nil, ErrInsufficientFunds
		}
	}

	if _, err := s.ledger.GetOrCreate(ctx, accountID); err != nil {
		return nil, err
	}

	claim, err := s.registry.Create(ctx, accountID, itemRef, declaredValue)
	if err != nil {
		return nil, err
	}

	log.Printf("[CLAIM] Submitted claim %d: account=%s item=%s value=%d",
		claim.ID, accountID, itemRef, declaredValue)
	return &SubmissionResult{Claim: claim}, nil
}

// Resolve transitions a pending claim to accepted or rejected. Acceptance
// debits the declared value and increments the claimed counter in the same
// transaction as the finalize; rejection changes the ledger not at all.
// Exactly one of any set of concurrent resolve calls on a claim mutates
// state; the rest come back with AlreadyFinalized set.
func (s *ClaimService) Resolve(ctx context.Context, claimID int64, outcome models.ClaimStatus, actorID string, actorIsAuthorized bool) (*ResolutionResult, error) {
	if !actorIsAuthorized {
		return nil, ErrUnauthorized
	}
	if !outcome.Terminal() {
		return nil, fmt.Errorf("%w: outcome must be accepted or rejected", ErrInvalidValue)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin", err)
	}
	defer tx.Rollback()

	// Lock the claim row first; claim before account, always.
	var claim models.Claim
	err = tx.QueryRowContext(ctx, `
		SELECT id, account_id, item_ref, declared_value, status, created_at
		FROM claims
		WHERE id = $1
		FOR UPDATE`, claimID).
		Scan(&claim.ID, &claim.AccountID, &claim.ItemRef, &claim.DeclaredValue,
			&claim.Status, &claim.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, storeErr("lock claim", err)
	}

	if claim.Status.Terminal() {
		log.Printf("[CLAIM] Resolve on claim %d is a no-op, already %s", claimID, claim.Status)
		return &ResolutionResult{Claim: &claim, AlreadyFinalized: true}, nil
	}

	var newBalance int64
	if outcome == models.ClaimAccepted {
		if err := ensureAccountTx(ctx, tx, claim.AccountID); err != nil {
			return nil, err
		}
		account, err := lockAccountTx(ctx, tx, claim.AccountID)
		if err != nil {
			return nil, err
		}
		if !s.policy.AllowNegativeBalance && account.Balance < claim.DeclaredValue {
			// Checked before the finalize so the claim stays pending.
			return nil, ErrInsufficientFunds
		}
		newBalance = account.Balance - claim.DeclaredValue

		finalized, err := tryFinalizeTx(ctx, tx, claimID, outcome, actorID)
		if err != nil {
			return nil, err
		}
		claim = *finalized

		if err := applyBalanceTx(ctx, tx, claim.AccountID, newBalance, 1, account.Version); err != nil {
			return nil, err
		}
	} else {
		finalized, err := tryFinalizeTx(ctx, tx, claimID, outcome, actorID)
		if err != nil {
			return nil, err
		}
		claim = *finalized
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit", err)
	}

	log.Printf("[CLAIM] Claim %d resolved as %s by %s", claimID, outcome, actorID)

	// Locks are released; the notification is fire-and-forget from here.
	s.notifyOutcome(&claim, newBalance)

	return &ResolutionResult{Claim: &claim, NewBalance: newBalance}, nil
}

// Inventory returns the caller's balance and counters.
func (s *ClaimService) Inventory(ctx context.Context, accountID string) (*models.Account, error) {
	return s.ledger.Read(ctx, accountID)
}

func (s *ClaimService) notifyOutcome(claim *models.Claim, newBalance int64) {
	if s.notifier == nil {
		return
	}

	var message string
	switch claim.Status {
	case models.ClaimAccepted:
		message = fmt.Sprintf("Your claim for %s was accepted. %d coins were deducted; new balance: %d.",
			claim.ItemRef, claim.DeclaredValue, newBalance)
	case models.ClaimRejected:
		message = fmt.Sprintf("Your claim for %s was rejected. Your balance is unchanged.", claim.ItemRef)
	default:
		return
	}

	s.notifier.Enqueue(Notification{
		AccountID: claim.AccountID,
		Kind:      "claim_" + string(claim.Status),
		ClaimID:   claim.ID,
		Amount:    claim.DeclaredValue,
		Message:   message,
	})
}
