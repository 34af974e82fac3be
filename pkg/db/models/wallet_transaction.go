package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/enums"
	"github.com/trovamart/returns-backend/pkg/types"
)

// WalletTransaction is an immutable ledger entry for the coin wallet. A
// refund entry whose return never reached completed is the reconciliation
// worker's signal of a half-applied settlement.
type WalletTransaction struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;index"`
	Type         enums.WalletTransactionType `gorm:"column:type;type:text;not null"`
	Coins        int64                       `gorm:"column:coins;not null"`
	BalanceAfter int64                       `gorm:"column:balance_after;not null"`
	OrderID      *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	ReturnID     *uuid.UUID                  `gorm:"column:return_id;type:uuid;index"`
	Deductions   []types.Deduction           `gorm:"column:deductions;type:jsonb;serializer:json"`
	ActorID      *uuid.UUID                  `gorm:"column:actor_id;type:uuid"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
