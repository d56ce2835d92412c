package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/coinkeeper/backend/internal/models"
)

func TestClaimRegistry_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	registry := NewClaimRegistry(db)

	t.Run("creates pending claim", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO claims").
			WithArgs("acct-1", "market-77", int64(40)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow(int64(1), time.Now()))

		claim, err := registry.Create(context.Background(), "acct-1", "market-77", 40)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), claim.ID)
		assert.Equal(t, models.ClaimPending, claim.Status)
		assert.Equal(t, int64(40), claim.DeclaredValue)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative value rejected without touching the store", func(t *testing.T) {
		_, err := registry.Create(context.Background(), "acct-1", "market-77", -1)
		assert.ErrorIs(t, err, ErrInvalidValue)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClaimRegistry_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	registry := NewClaimRegistry(db)

	t.Run("existing claim", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, account_id, item_ref, declared_value, status, created_at, resolved_at, resolved_by").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "item_ref", "declared_value", "status", "created_at", "resolved_at", "resolved_by"}).
				AddRow(int64(1), "acct-1", "market-77", int64(40), "pending", time.Now(), nil, nil))

		claim, err := registry.Get(context.Background(), 1)
		assert.NoError(t, err)
		assert.Equal(t, "acct-1", claim.AccountID)
		assert.Equal(t, models.ClaimPending, claim.Status)
	})

	t.Run("unknown claim", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, account_id, item_ref, declared_value, status, created_at, resolved_at, resolved_by").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		_, err := registry.Get(context.Background(), 99)
		assert.ErrorIs(t, err, ErrClaimNotFound)
	})
}

func TestClaimRegistry_TryFinalize(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	registry := NewClaimRegistry(db)

	t.Run("wins the compare-and-swap", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery(`SET status = \$1, resolved_at = \$2, resolved_by = \$3`).
			WithArgs("accepted", sqlmock.AnyArg(), "reviewer-1", int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "item_ref", "declared_value", "status", "created_at"}).
				AddRow(int64(1), "acct-1", "market-77", int64(40), "accepted", time.Now()))

		mock.ExpectCommit()

		claim, err := registry.TryFinalize(context.Background(), 1, models.ClaimAccepted, "reviewer-1")
		assert.NoError(t, err)
		assert.Equal(t, models.ClaimAccepted, claim.Status)
		assert.Equal(t, "reviewer-1", claim.ResolvedBy)
		assert.NotNil(t, claim.ResolvedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses the race", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery(`SET status = \$1, resolved_at = \$2, resolved_by = \$3`).
			WithArgs("rejected", sqlmock.AnyArg(), "reviewer-2", int64(1)).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectQuery("SELECT status FROM claims").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("accepted"))

		mock.ExpectRollback()

		_, err := registry.TryFinalize(context.Background(), 1, models.ClaimRejected, "reviewer-2")
		assert.ErrorIs(t, err, ErrAlreadyFinalized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown claim", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery(`SET status = \$1, resolved_at = \$2, resolved_by = \$3`).
			WithArgs("accepted", sqlmock.AnyArg(), "reviewer-1", int64(404)).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectQuery("SELECT status FROM claims").
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectRollback()

		_, err := registry.TryFinalize(context.Background(), 404, models.ClaimAccepted, "reviewer-1")
		assert.ErrorIs(t, err, ErrClaimNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pending is not a finalize outcome", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := registry.TryFinalize(context.Background(), 1, models.ClaimPending, "reviewer-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid finalize outcome")
	})
}

func TestClaimRegistry_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	registry := NewClaimRegistry(db)

	t.Run("pending queue", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, account_id, item_ref, declared_value, status, created_at, resolved_at, resolved_by").
			WithArgs("pending").
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "item_ref", "declared_value", "status", "created_at", "resolved_at", "resolved_by"}).
				AddRow(int64(2), "acct-2", "market-12", int64(15), "pending", time.Now(), nil, nil).
				AddRow(int64(1), "acct-1", "market-77", int64(40), "pending", time.Now(), nil, nil))

		claims, err := registry.List(context.Background(), models.ClaimPending, 50)
		assert.NoError(t, err)
		assert.Len(t, claims, 2)
		assert.Equal(t, int64(2), claims[0].ID)
	})
}
