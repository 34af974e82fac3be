package orders

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
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			order_number TEXT NOT NULL UNIQUE,
			customer_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'placed',
			delivered_at DATETIME,
			otp_code TEXT NOT NULL,
			otp_used INTEGER NOT NULL DEFAULT 0,
			otp_used_at DATETIME,
			otp_locked_until DATETIME,
			has_active_return INTEGER NOT NULL DEFAULT 0,
			last_return_status TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE order_line_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			variant_id TEXT,
			name TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'standard',
			qty INTEGER NOT NULL,
			unit_price_cents INTEGER NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE order_otp_attempts (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			entered_code TEXT NOT NULL,
			actor_id TEXT,
			remote_addr TEXT,
			attempted_at DATETIME
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()
	deliveredAt := time.Now().UTC().Add(-48 * time.Hour)
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-" + uuid.NewString()[:8],
		CustomerID:  uuid.New(),
		Status:      enums.OrderStatusDelivered,
		DeliveredAt: &deliveredAt,
		OTPCode:     "482913",
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryFindByIDPreloadsLines(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db)
	require.NoError(t, db.Create(&models.OrderLineItem{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ProductID:      uuid.New(),
		Name:           "Desk lamp",
		Kind:           enums.ItemKindStandard,
		Qty:            2,
		UnitPriceCents: 200,
	}).Error)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.LineItems, 1)
	require.Equal(t, "482913", stored.OTPCode)

	_, err = repo.FindByID(ctx, uuid.New())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRepositoryMarkOTPUsedIsSingleUse(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db)
	usedAt := time.Now().UTC()

	require.NoError(t, repo.MarkOTPUsedTx(ctx, nil, order.ID, usedAt))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, stored.OTPUsed)
	require.NotNil(t, stored.OTPUsedAt)

	// The second spend must conflict, not overwrite.
	err = repo.MarkOTPUsedTx(ctx, nil, order.ID, usedAt.Add(time.Minute))
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	again, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, stored.OTPUsedAt.Unix(), again.OTPUsedAt.Unix())
}

func TestRepositoryCountsFailedAttemptsInWindow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db)
	now := time.Now().UTC()

	for _, age := range []time.Duration{2 * time.Minute, 5 * time.Minute, 15 * time.Minute} {
		require.NoError(t, repo.InsertAttemptTx(ctx, nil, &models.OrderOTPAttempt{
			ID:          uuid.New(),
			OrderID:     order.ID,
			EnteredCode: "000000",
			AttemptedAt: now.Add(-age),
		}))
	}

	count, err := repo.CountFailedAttemptsSinceTx(ctx, nil, order.ID, now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, count, "attempts older than the window must not count")

	count, err = repo.CountFailedAttemptsSinceTx(ctx, nil, uuid.New(), now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRepositorySetReturnStateProjectsStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db)
	status := enums.ReturnStatusPickupScheduled
	require.NoError(t, repo.SetReturnStateTx(ctx, nil, order.ID, true, &status))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, stored.HasActiveReturn)
	require.NotNil(t, stored.LastReturnStatus)
	require.Equal(t, status, *stored.LastReturnStatus)

	require.NoError(t, repo.SetReturnStateTx(ctx, nil, order.ID, false, nil))
	stored, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.False(t, stored.HasActiveReturn)
	require.Nil(t, stored.LastReturnStatus)
}

func TestRepositorySetLockout(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db)
	until := time.Now().UTC().Add(30 * time.Minute)
	require.NoError(t, repo.SetLockoutTx(ctx, nil, order.ID, until))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.OTPLockedUntil)
	require.Equal(t, until.Unix(), stored.OTPLockedUntil.Unix())
}
