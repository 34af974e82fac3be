package returns

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	"github.com/trovamart/returns-backend/pkg/types"
)

// ItemInput selects one order line and how many units come back.
type ItemInput struct {
	OrderLineItemID uuid.UUID `json:"order_line_item_id" validate:"required"`
	Qty             int       `json:"qty" validate:"required,gt=0"`
}

// CreateInput is everything a customer submits to open a return.
type CreateInput struct {
	CustomerID     uuid.UUID          `json:"-"`
	OrderID        uuid.UUID          `json:"order_id" validate:"required"`
	Reason         enums.ReturnReason `json:"reason" validate:"required"`
	EvidenceImages []string           `json:"evidence_images" validate:"required,min=1,dive,url"`
	Items          []ItemInput        `json:"items" validate:"required,min=1,dive"`
}

// ReviewInput captures the first-stage admin ruling.
type ReviewInput struct {
	ReturnID             uuid.UUID
	AdminID              uuid.UUID
	Approve              bool
	Notes                *string
	PickupChargeOverride *bool
}

// AssignWarehouseInput routes an approved return to a warehouse manager.
type AssignWarehouseInput struct {
	ReturnID  uuid.UUID
	AdminID   uuid.UUID
	ManagerID uuid.UUID
}

// SchedulePickupInput books an agent visit.
type SchedulePickupInput struct {
	ReturnID     uuid.UUID
	WarehouseID  uuid.UUID
	AgentID      uuid.UUID `json:"agent_id" validate:"required"`
	ScheduledFor time.Time `json:"scheduled_for" validate:"required"`
}

// PickupFailureInput records a missed pickup attempt.
type PickupFailureInput struct {
	ReturnID  uuid.UUID
	ActorID   uuid.UUID
	ActorRole enums.ActorRole
	Notes     *string
}

// RescheduleInput flags a failed pickup for a fresh booking.
type RescheduleInput struct {
	ReturnID    uuid.UUID
	WarehouseID uuid.UUID
	Notes       *string
}

// ReceiveInput confirms physical arrival at the warehouse.
type ReceiveInput struct {
	ReturnID    uuid.UUID
	WarehouseID uuid.UUID
}

// AssessInput records the warehouse inspection outcome.
type AssessInput struct {
	ReturnID              uuid.UUID
	WarehouseID           uuid.UUID
	Condition             enums.ItemCondition `json:"condition" validate:"required"`
	RefundEligiblePercent int                 `json:"refund_eligible_percent" validate:"gte=0,lte=100"`
	Notes                 *string             `json:"notes"`
}

// RecommendInput is the warehouse's non-binding refund proposal.
type RecommendInput struct {
	ReturnID      uuid.UUID
	WarehouseID   uuid.UUID
	RefundPercent int               `json:"refund_percent" validate:"gte=0,lte=100"`
	Deductions    []types.Deduction `json:"deductions"`
	Notes         *string           `json:"notes"`
}

// DecideInput is the binding refund ruling.
type DecideInput struct {
	ReturnID        uuid.UUID
	ActorID         uuid.UUID
	ActorRole       enums.ActorRole
	Approve         bool              `json:"approve"`
	RefundPercent   int               `json:"refund_percent" validate:"gte=0,lte=100"`
	ExtraDeductions []types.Deduction `json:"extra_deductions"`
	Notes           *string           `json:"notes"`
}

// CancelInput withdraws a return before pickup.
type CancelInput struct {
	ReturnID   uuid.UUID
	CustomerID uuid.UUID
	Notes      *string
}

// TransitionInput drives one validated status move. All mutating operations
// funnel through it so the audit append and version bump stay paired.
type TransitionInput struct {
	ReturnID  uuid.UUID
	To        enums.ReturnStatus
	ActorID   *uuid.UUID
	ActorRole enums.ActorRole
	Notes     *string
	Automatic bool
	// Mutate runs inside the transition's transaction after validation and
	// may edit the aggregate's JSONB documents alongside the status change.
	Mutate func(ret *models.Return) error
	// After runs inside the same transaction once the status, audit entry,
	// and order projection have been written. Used to queue extra outbox
	// events so they commit or roll back with the transition.
	After func(tx *gorm.DB, ret *models.Return) error
}

// ReturnList wraps a page of returns plus the next cursor.
type ReturnList struct {
	Returns    []models.Return `json:"returns"`
	NextCursor string          `json:"next_cursor,omitempty"`
}
