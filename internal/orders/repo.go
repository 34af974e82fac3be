package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/pagination"
)

// Repository is the order projection this service reads and annotates. The
// forward order pipeline owns these rows; returns only touch the OTP record
// and the return-state columns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	SetReturnStateTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, hasActiveReturn bool, lastStatus *enums.ReturnStatus) error
	MarkOTPUsedTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, at time.Time) error
	SetLockoutTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, until time.Time) error
	InsertAttemptTx(ctx context.Context, tx *gorm.DB, attempt *models.OrderOTPAttempt) error
	CountFailedAttemptsSinceTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, since time.Time) (int, error)
	DeleteAttemptsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OrderList wraps a page of orders plus the next cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ?", customerID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.
		Preload("LineItems").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OrderList{Orders: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Orders = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}

func (r *repository) SetReturnStateTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, hasActiveReturn bool, lastStatus *enums.ReturnStatus) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"has_active_return":  hasActiveReturn,
			"last_return_status": lastStatus,
		}).Error
}

// MarkOTPUsedTx spends the delivery OTP. The otp_used guard in the predicate
// makes a double spend surface as a state conflict instead of silently
// overwriting the first use.
func (r *repository) MarkOTPUsedTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, at time.Time) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	result := db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND otp_used = ?", orderID, false).
		Updates(map[string]any{
			"otp_used":    true,
			"otp_used_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "verification code has already been used")
	}
	return nil
}

func (r *repository) SetLockoutTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, until time.Time) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("otp_locked_until", until).Error
}

func (r *repository) InsertAttemptTx(ctx context.Context, tx *gorm.DB, attempt *models.OrderOTPAttempt) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Create(attempt).Error
}

func (r *repository) CountFailedAttemptsSinceTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, since time.Time) (int, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var count int64
	err := db.WithContext(ctx).
		Model(&models.OrderOTPAttempt{}).
		Where("order_id = ? AND attempted_at >= ?", orderID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// DeleteAttemptsBefore prunes verification attempts older than the cutoff.
// The lockout window is minutes wide, so old rows only serve audits.
func (r *repository) DeleteAttemptsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	result := db.WithContext(ctx).
		Where("attempted_at < ?", cutoff).
		Delete(&models.OrderOTPAttempt{})
	return result.RowsAffected, result.Error
}
