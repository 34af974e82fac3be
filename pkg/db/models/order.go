package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/enums"
)

// Order is the projection of the forward order this service depends on:
// delivery completion, the delivery OTP record, and the active-return flag.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string            `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'placed'"`
	DeliveredAt *time.Time        `gorm:"column:delivered_at"`

	// OTP record shared by the forward delivery and return pickup flows.
	OTPCode        string     `gorm:"column:otp_code;type:text;not null"`
	OTPUsed        bool       `gorm:"column:otp_used;not null;default:false"`
	OTPUsedAt      *time.Time `gorm:"column:otp_used_at"`
	OTPLockedUntil *time.Time `gorm:"column:otp_locked_until"`

	HasActiveReturn  bool                `gorm:"column:has_active_return;not null;default:false"`
	LastReturnStatus *enums.ReturnStatus `gorm:"column:last_return_status;type:text"`

	LineItems []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem is the per-line snapshot return quantities are validated against.
type OrderLineItem struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID     `gorm:"column:variant_id;type:uuid"`
	Name           string         `gorm:"column:name;not null"`
	Kind           enums.ItemKind `gorm:"column:kind;type:text;not null;default:'standard'"`
	Qty            int            `gorm:"column:qty;not null"`
	UnitPriceCents int64          `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
}
