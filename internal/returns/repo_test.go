package returns

import (
	"context"
	"fmt"
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
	"github.com/trovamart/returns-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:returns_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE returns (
			id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL UNIQUE,
			order_id TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			evidence_images TEXT,
			status TEXT NOT NULL DEFAULT 'requested',
			eligibility TEXT,
			admin_review TEXT,
			warehouse TEXT,
			refund TEXT,
			version INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE return_items (
			id TEXT PRIMARY KEY,
			return_id TEXT NOT NULL,
			order_line_item_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			variant_id TEXT,
			name TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'standard',
			qty INTEGER NOT NULL,
			unit_price_cents INTEGER NOT NULL,
			total_cents INTEGER NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE return_status_updates (
			id TEXT PRIMARY KEY,
			return_id TEXT NOT NULL,
			from_status TEXT NOT NULL,
			to_status TEXT NOT NULL,
			actor_id TEXT,
			actor_role TEXT NOT NULL,
			notes TEXT,
			automatic INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedStoredReturn(t *testing.T, db *gorm.DB, status enums.ReturnStatus, createdAt time.Time) *models.Return {
	t.Helper()
	ret := &models.Return{
		ID:             uuid.New(),
		RequestID:      fmt.Sprintf("RET-20260810-%06X", time.Now().UnixNano()&0xFFFFFF),
		OrderID:        uuid.New(),
		CustomerID:     uuid.New(),
		Reason:         enums.ReturnReasonDefective,
		EvidenceImages: []string{"https://cdn.example.com/evidence/1.jpg"},
		Status:         status,
		Eligibility:    types.EligibilitySnapshot{Eligible: true},
		Refund:         types.RefundRecord{OriginalAmountCents: 400},
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, db.Create(ret).Error)
	return ret
}

func TestRepositoryUpdateVersionedBumpsVersion(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ret := seedStoredReturn(t, db, enums.ReturnStatusRequested, time.Now().UTC())
	ret.Status = enums.ReturnStatusAdminReview

	require.NoError(t, repo.UpdateVersioned(ctx, ret, 0))
	require.EqualValues(t, 1, ret.Version)

	stored, err := repo.FindByID(ctx, ret.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStatusAdminReview, stored.Status)
	require.EqualValues(t, 1, stored.Version)
}

func TestRepositoryUpdateVersionedStaleVersionConflicts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ret := seedStoredReturn(t, db, enums.ReturnStatusRequested, time.Now().UTC())

	// First writer wins.
	first := *ret
	first.Status = enums.ReturnStatusAdminReview
	require.NoError(t, repo.UpdateVersioned(ctx, &first, 0))

	// Second writer still holds version 0 and must lose.
	second := *ret
	second.Status = enums.ReturnStatusCancelled
	err := repo.UpdateVersioned(ctx, &second, 0)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	stored, err := repo.FindByID(ctx, ret.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStatusAdminReview, stored.Status)
}

func TestRepositoryFindActiveByOrderSkipsTerminal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	for i, status := range []enums.ReturnStatus{
		enums.ReturnStatusCancelled,
		enums.ReturnStatusRejected,
		enums.ReturnStatusCompleted,
	} {
		ret := seedStoredReturn(t, db, status, time.Now().UTC().Add(time.Duration(-i)*time.Hour))
		require.NoError(t, db.Model(&models.Return{}).Where("id = ?", ret.ID).Update("order_id", orderID).Error)
	}

	active, err := repo.FindActiveByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Nil(t, active, "terminal returns must not count as active")

	live := seedStoredReturn(t, db, enums.ReturnStatusPickupScheduled, time.Now().UTC())
	require.NoError(t, db.Model(&models.Return{}).Where("id = ?", live.ID).Update("order_id", orderID).Error)

	active, err = repo.FindActiveByOrder(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, live.ID, active.ID)
}

func TestRepositoryListByCustomerPaginates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)
	var seeded []*models.Return
	for i := 0; i < 3; i++ {
		ret := seedStoredReturn(t, db, enums.ReturnStatusRequested, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, db.Model(&models.Return{}).Where("id = ?", ret.ID).Update("customer_id", customerID).Error)
		seeded = append(seeded, ret)
	}

	page, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Returns, 2)
	require.NotEmpty(t, page.NextCursor)
	// Newest first.
	require.Equal(t, seeded[2].ID, page.Returns[0].ID)
	require.Equal(t, seeded[1].ID, page.Returns[1].ID)

	rest, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Returns, 1)
	require.Empty(t, rest.NextCursor)
	require.Equal(t, seeded[0].ID, rest.Returns[0].ID)
}

func TestRepositoryFindByIDPreloadsItems(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ret := seedStoredReturn(t, db, enums.ReturnStatusRequested, time.Now().UTC())
	require.NoError(t, repo.CreateItems(ctx, []models.ReturnItem{{
		ID:              uuid.New(),
		ReturnID:        ret.ID,
		OrderLineItemID: uuid.New(),
		ProductID:       uuid.New(),
		Name:            "Ceramic mug",
		Kind:            enums.ItemKindStandard,
		Qty:             2,
		UnitPriceCents:  200,
		TotalCents:      400,
	}}))

	stored, err := repo.FindByID(ctx, ret.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	require.EqualValues(t, 400, stored.OriginalAmountCents())
}

func TestRepositoryFindByIDNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRepositoryAppendStatusUpdateKeepsTrail(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ret := seedStoredReturn(t, db, enums.ReturnStatusRequested, time.Now().UTC())
	actorID := uuid.New()
	for _, hop := range [][2]enums.ReturnStatus{
		{enums.ReturnStatusRequested, enums.ReturnStatusAdminReview},
		{enums.ReturnStatusAdminReview, enums.ReturnStatusApproved},
	} {
		require.NoError(t, repo.AppendStatusUpdate(ctx, &models.ReturnStatusUpdate{
			ID:         uuid.New(),
			ReturnID:   ret.ID,
			FromStatus: hop[0],
			ToStatus:   hop[1],
			ActorID:    &actorID,
			ActorRole:  enums.ActorRoleAdmin,
		}))
	}

	var count int64
	require.NoError(t, db.Model(&models.ReturnStatusUpdate{}).Where("return_id = ?", ret.ID).Count(&count).Error)
	require.EqualValues(t, 2, count)
}
