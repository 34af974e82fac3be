package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:wallet_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			coin_balance INTEGER NOT NULL DEFAULT 0,
			lifetime_coins_earned INTEGER NOT NULL DEFAULT 0,
			last_login_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE wallet_transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			coins INTEGER NOT NULL,
			balance_after INTEGER NOT NULL,
			order_id TEXT,
			return_id TEXT,
			deductions TEXT,
			actor_id TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE returns (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			created_at DATETIME
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, balance int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:                  id,
		Email:               id.String() + "@example.com",
		FirstName:           "Priya",
		LastName:            "Sharma",
		CoinBalance:         balance,
		LifetimeCoinsEarned: balance,
	}
	require.NoError(t, db.Create(user).Error)
	return id
}

func seedLedgerEntry(t *testing.T, db *gorm.DB, userID uuid.UUID, returnStatus enums.ReturnStatus, createdAt time.Time) *models.WalletTransaction {
	t.Helper()

	returnID := uuid.New()
	require.NoError(t, db.Exec(
		"INSERT INTO returns (id, status, created_at) VALUES (?, ?, ?)",
		returnID, returnStatus, createdAt,
	).Error)

	entry := &models.WalletTransaction{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         enums.WalletTransactionTypeRefund,
		Coins:        1600,
		BalanceAfter: 1600,
		ReturnID:     &returnID,
		CreatedAt:    createdAt,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func TestRepositoryCreditIsAtomicIncrement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, 250)

	balance, err := repo.Credit(ctx, userID, 1600)
	require.NoError(t, err)
	require.EqualValues(t, 1850, balance)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", userID).Error)
	require.EqualValues(t, 1850, user.CoinBalance)
	require.EqualValues(t, 1850, user.LifetimeCoinsEarned)

	balance, err = repo.Credit(ctx, userID, 150)
	require.NoError(t, err)
	require.EqualValues(t, 2000, balance)
}

func TestRepositoryCreditRejectsNonPositive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	for _, coins := range []int64{0, -5} {
		_, err := repo.Credit(context.Background(), uuid.New(), coins)
		require.Error(t, err)
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
}

func TestRepositoryFindRefundByReturn(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, 0)
	entry := seedLedgerEntry(t, db, userID, enums.ReturnStatusRefundApproved, time.Now().UTC())

	found, err := repo.FindRefundByReturn(ctx, *entry.ReturnID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, entry.ID, found.ID)

	missing, err := repo.FindRefundByReturn(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing, "absence is not an error")
}

func TestRepositoryFindUnreconciledRefunds(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, 0)
	now := time.Now().UTC()

	stranded := seedLedgerEntry(t, db, userID, enums.ReturnStatusRefundApproved, now.Add(-2*time.Hour))
	alsoStranded := seedLedgerEntry(t, db, userID, enums.ReturnStatusRefundProcessed, now.Add(-time.Hour))
	seedLedgerEntry(t, db, userID, enums.ReturnStatusCompleted, now)

	rows, err := repo.FindUnreconciledRefunds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2, "entries for completed returns are reconciled")
	// Oldest first so repair drains the backlog in order.
	require.Equal(t, stranded.ID, rows[0].ID)
	require.Equal(t, alsoStranded.ID, rows[1].ID)
}

func TestRepositoryListByUserPaginates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db, 0)
	base := time.Now().UTC().Truncate(time.Second)
	var entries []*models.WalletTransaction
	for i := 0; i < 3; i++ {
		entries = append(entries, seedLedgerEntry(t, db, userID, enums.ReturnStatusCompleted, base.Add(time.Duration(i)*time.Minute)))
	}

	page, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	require.NotEmpty(t, page.NextCursor)
	require.Equal(t, entries[2].ID, page.Transactions[0].ID)

	rest, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Transactions, 1)
	require.Empty(t, rest.NextCursor)
	require.Equal(t, entries[0].ID, rest.Transactions[0].ID)
}
