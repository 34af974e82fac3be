package wallet

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

// Repository persists coin wallet state. Balances only move through atomic
// SQL increments; nothing reads a balance and writes it back.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Credit adds coins to the balance and lifetime counter in one statement
	// and returns the resulting balance.
	Credit(ctx context.Context, userID uuid.UUID, coins int64) (int64, error)
	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	FindRefundByReturn(ctx context.Context, returnID uuid.UUID) (*models.WalletTransaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionList, error)
	// FindUnreconciledRefunds lists refund ledger entries whose return never
	// reached completed. These are half-applied settlements.
	FindUnreconciledRefunds(ctx context.Context, limit int) ([]models.WalletTransaction, error)
}

// TransactionList wraps a ledger page plus the next cursor.
type TransactionList struct {
	Transactions []models.WalletTransaction `json:"transactions"`
	NextCursor   string                     `json:"next_cursor,omitempty"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Credit(ctx context.Context, userID uuid.UUID, coins int64) (int64, error) {
	if coins <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}

	var balance int64
	err := r.db.WithContext(ctx).
		Raw(`UPDATE users
			SET coin_balance = coin_balance + ?,
			    lifetime_coins_earned = lifetime_coins_earned + ?,
			    updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
			RETURNING coin_balance`, coins, coins, userID).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindRefundByReturn(ctx context.Context, returnID uuid.UUID) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("return_id = ? AND type = ?", returnID, enums.WalletTransactionTypeRefund).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WalletTransaction
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &TransactionList{Transactions: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Transactions = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}

func (r *repository) FindUnreconciledRefunds(ctx context.Context, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Joins("JOIN returns ON returns.id = wallet_transactions.return_id").
		Where("wallet_transactions.type = ? AND returns.status <> ?", enums.WalletTransactionTypeRefund, enums.ReturnStatusCompleted).
		Order("wallet_transactions.created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
