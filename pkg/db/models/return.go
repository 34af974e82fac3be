package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/enums"
	"github.com/trovamart/returns-backend/pkg/types"
)

// Return is the aggregate root for a merchandise return request. Status moves
// only through the validated transition function; Version backs the
// read-modify-write optimistic lock.
type Return struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID  string    `gorm:"column:request_id;type:text;not null;uniqueIndex"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`

	Reason         enums.ReturnReason `gorm:"column:reason;type:text;not null"`
	EvidenceImages []string           `gorm:"column:evidence_images;type:jsonb;serializer:json;not null"`
	Status         enums.ReturnStatus `gorm:"column:status;type:text;not null;default:'requested'"`

	Eligibility types.EligibilitySnapshot `gorm:"column:eligibility;type:jsonb;serializer:json"`
	AdminReview *types.AdminReview        `gorm:"column:admin_review;type:jsonb;serializer:json"`
	Warehouse   *types.WarehouseRecord    `gorm:"column:warehouse;type:jsonb;serializer:json"`
	Refund      types.RefundRecord        `gorm:"column:refund;type:jsonb;serializer:json"`

	Version int64 `gorm:"column:version;not null;default:0"`

	Items         []ReturnItem         `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`
	StatusUpdates []ReturnStatusUpdate `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OriginalAmountCents sums the fixed line totals. The stored refund record
// carries the same figure; this recomputes it from the immutable lines.
func (r *Return) OriginalAmountCents() int64 {
	var sum int64
	for _, item := range r.Items {
		sum += item.TotalCents
	}
	return sum
}
