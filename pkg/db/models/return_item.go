package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/enums"
)

// ReturnItem snapshots one order line being sent back. Quantity may not
// exceed the originating order line; immutable after creation.
type ReturnItem struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReturnID        uuid.UUID      `gorm:"column:return_id;type:uuid;not null;index"`
	OrderLineItemID uuid.UUID      `gorm:"column:order_line_item_id;type:uuid;not null"`
	ProductID       uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	VariantID       *uuid.UUID     `gorm:"column:variant_id;type:uuid"`
	Name            string         `gorm:"column:name;not null"`
	Kind            enums.ItemKind `gorm:"column:kind;type:text;not null;default:'standard'"`
	Qty             int            `gorm:"column:qty;not null"`
	UnitPriceCents  int64          `gorm:"column:unit_price_cents;not null"`
	TotalCents      int64          `gorm:"column:total_cents;not null"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
}
