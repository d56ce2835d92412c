package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coinkeeper/backend/internal/config"
	"github.com/coinkeeper/backend/internal/models"
)

// LedgerService owns the per-account balance and counters. Every mutation on
// a single account is serialized through a row lock, so concurrent operations
// on distinct accounts proceed in parallel while a hot account only contends
// with itself.
type LedgerService struct {
	db     *sql.DB
	policy *config.ClaimPolicy
}

func NewLedgerService(db *sql.DB, policy *config.ClaimPolicy) *LedgerService {
	if policy == nil {
		policy = config.LoadClaimPolicy()
	}
	return &LedgerService{db: db, policy: policy}
}

// GetOrCreate returns the account, inserting a zero-valued row on first
// reference. Idempotent.
func (s *LedgerService) GetOrCreate(ctx context.Context, accountID string) (*models.Account, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING`, accountID)
	if err != nil {
		return nil, storeErr("create account", err)
	}
	return s.Read(ctx, accountID)
}

// Read returns a point-in-time snapshot. An account that has never been
// referenced reads as all zeroes, matching get-or-create semantics without
// the write.
func (s *LedgerService) Read(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, balance, message_count, claimed_count, version, created_at, updated_at
		FROM accounts
		WHERE id = $1`, accountID).
		Scan(&account.ID, &account.Balance, &account.MessageCount, &account.ClaimedCount,
			&account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.Account{ID: accountID}, nil
	}
	if err != nil {
		return nil, storeErr("read account", err)
	}
	return &account, nil
}

// Credit atomically adds amount to the account balance.
func (s *LedgerService) Credit(ctx context.Context, accountID string, amount int64) (*models.Account, error) {
	return s.adjustBalance(ctx, accountID, amount, false)
}

// Debit atomically subtracts amount from the account balance. Fails with
// ErrInsufficientFunds when the balance would go negative, unless policy
// allows debt.
func (s *LedgerService) Debit(ctx context.Context, accountID string, amount int64) (*models.Account, error) {
	return s.adjustBalance(ctx, accountID, amount, true)
}

func (s *LedgerService) adjustBalance(ctx context.Context, accountID string, amount int64, debit bool) (*models.Account, error) {
	if amount < 0 {
		return nil, ErrInvalidValue
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin", err)
	}
	defer tx.Rollback()

	if err := ensureAccountTx(ctx, tx, accountID); err != nil {
		return nil, err
	}

	account, err := lockAccountTx(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	delta := amount
	if debit {
		if !s.policy.AllowNegativeBalance && account.Balance < amount {
			return nil, ErrInsufficientFunds
		}
		delta = -amount
	}

	newBalance := account.Balance + delta
	if err := applyBalanceTx(ctx, tx, accountID, newBalance, 0, account.Version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit", err)
	}

	account.Balance = newBalance
	account.Version++
	return account, nil
}

// IncrementClaimed bumps the accepted-claim counter.
func (s *LedgerService) IncrementClaimed(ctx context.Context, accountID string, n int64) error {
	return s.incrementCounter(ctx, accountID, "claimed_count", n)
}

// IncrementMessages bumps the message counter; driven by the message
// ingestion endpoint on behalf of the chat transport.
func (s *LedgerService) IncrementMessages(ctx context.Context, accountID string, n int64) error {
	return s.incrementCounter(ctx, accountID, "message_count", n)
}

func (s *LedgerService) incrementCounter(ctx context.Context, accountID, column string, n int64) error {
	if n < 1 {
		return ErrInvalidValue
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING`, accountID); err != nil {
		return storeErr("create account", err)
	}
	// column is one of two compile-time constants, never user input
	query := fmt.Sprintf(`UPDATE accounts SET %s = %s + $1, updated_at = $2 WHERE id = $3`, column, column)
	if _, err := s.db.ExecContext(ctx, query, n, time.Now(), accountID); err != nil {
		return storeErr("increment "+column, err)
	}
	return nil
}

func ensureAccountTx(ctx context.Context, tx *sql.Tx, accountID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING`, accountID)
	if err != nil {
		return storeErr("create account", err)
	}
	return nil
}

func lockAccountTx(ctx context.Context, tx *sql.Tx, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRowContext(ctx, `
		SELECT id, balance, message_count, claimed_count, version, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, accountID).
		Scan(&account.ID, &account.Balance, &account.MessageCount, &account.ClaimedCount,
			&account.Version, &account.UpdatedAt)
	if err != nil {
		return nil, storeErr("lock account", err)
	}
	return &account, nil
}

func applyBalanceTx(ctx context.Context, tx *sql.Tx, accountID string, newBalance, claimedDelta int64, version int) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, claimed_count = claimed_count + $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5`,
		newBalance, claimedDelta, time.Now(), accountID, version)
	if err != nil {
		return storeErr("update balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("update balance", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("optimistic lock failed for account %s", accountID)
	}

	return nil
}
