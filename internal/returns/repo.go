package returns

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a returns repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ret *models.Return) error {
	return r.db.WithContext(ctx).Create(ret).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&ret).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, err
	}
	return &ret, nil
}

func (r *repository) FindWithHistory(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusUpdates", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&ret).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, err
	}
	return &ret, nil
}

func (r *repository) FindByRequestID(ctx context.Context, requestID string) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("request_id = ?", requestID).
		First(&ret).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, err
	}
	return &ret, nil
}

func (r *repository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Return, error) {
	terminal := []enums.ReturnStatus{
		enums.ReturnStatusCompleted,
		enums.ReturnStatusRejected,
		enums.ReturnStatusCancelled,
	}
	var ret models.Return
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status NOT IN ?", orderID, terminal).
		Order("created_at DESC").
		First(&ret).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ret, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ReturnList, error) {
	query := r.db.WithContext(ctx).Model(&models.Return{}).Where("customer_id = ?", customerID)
	return r.list(ctx, query, params)
}

func (r *repository) ListByStatus(ctx context.Context, statuses []enums.ReturnStatus, params pagination.Params) (*ReturnList, error) {
	query := r.db.WithContext(ctx).Model(&models.Return{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	return r.list(ctx, query, params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) (*ReturnList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Return
	if err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ReturnList{Returns: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Returns = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}

// UpdateVersioned writes the aggregate back under an optimistic lock. The
// status column and JSONB documents only land when version still matches;
// a concurrent writer makes RowsAffected zero and the caller gets a clean
// state-conflict to retry against fresh state.
func (r *repository) UpdateVersioned(ctx context.Context, ret *models.Return, expectedVersion int64) error {
	updates := map[string]any{
		"status":       ret.Status,
		"eligibility":  ret.Eligibility,
		"admin_review": ret.AdminReview,
		"warehouse":    ret.Warehouse,
		"refund":       ret.Refund,
		"version":      expectedVersion + 1,
	}

	result := r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("id = ? AND version = ?", ret.ID, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "return was modified concurrently")
	}
	ret.Version = expectedVersion + 1
	return nil
}

func (r *repository) AppendStatusUpdate(ctx context.Context, update *models.ReturnStatusUpdate) error {
	return r.db.WithContext(ctx).Create(update).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.ReturnItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}
