package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/enums"
)

// ReturnRequestedEvent signals a new merchandise return entering the pipeline.
type ReturnRequestedEvent struct {
	ReturnID            uuid.UUID          `json:"return_id"`
	RequestID           string             `json:"request_id"`
	OrderID             uuid.UUID          `json:"order_id"`
	CustomerID          uuid.UUID          `json:"customer_id"`
	Reason              enums.ReturnReason `json:"reason"`
	ItemCount           int                `json:"item_count"`
	OriginalAmountCents int64              `json:"original_amount_cents"`
}

// ReturnStatusChangedEvent is emitted on every lifecycle transition.
type ReturnStatusChangedEvent struct {
	ReturnID   uuid.UUID          `json:"return_id"`
	RequestID  string             `json:"request_id"`
	OrderID    uuid.UUID          `json:"order_id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	FromStatus enums.ReturnStatus `json:"from_status"`
	ToStatus   enums.ReturnStatus `json:"to_status"`
	ActorRole  enums.ActorRole    `json:"actor_role"`
	Automatic  bool               `json:"automatic"`
}

// ReturnCancelledEvent is emitted when a customer withdraws a pending return.
type ReturnCancelledEvent struct {
	ReturnID    uuid.UUID          `json:"return_id"`
	RequestID   string             `json:"request_id"`
	OrderID     uuid.UUID          `json:"order_id"`
	CustomerID  uuid.UUID          `json:"customer_id"`
	PriorStatus enums.ReturnStatus `json:"prior_status"`
	CancelledAt time.Time          `json:"cancelled_at"`
}

// PickupScheduledEvent carries the agent booking for a return pickup.
type PickupScheduledEvent struct {
	ReturnID     uuid.UUID `json:"return_id"`
	OrderID      uuid.UUID `json:"order_id"`
	AgentID      uuid.UUID `json:"agent_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Attempt      int       `json:"attempt"`
}

// PickupVerifiedEvent is emitted once the agent passes OTP verification.
type PickupVerifiedEvent struct {
	ReturnID   uuid.UUID `json:"return_id"`
	OrderID    uuid.UUID `json:"order_id"`
	AgentID    uuid.UUID `json:"agent_id"`
	VerifiedAt time.Time `json:"verified_at"`
}

// QualityAssessedEvent surfaces the warehouse inspection outcome.
type QualityAssessedEvent struct {
	ReturnID              uuid.UUID           `json:"return_id"`
	Condition             enums.ItemCondition `json:"condition"`
	RefundEligiblePercent int                 `json:"refund_eligible_percent"`
	AssessedBy            uuid.UUID           `json:"assessed_by"`
}

// RefundDecidedEvent is emitted when admin finalizes the refund decision.
type RefundDecidedEvent struct {
	ReturnID         uuid.UUID `json:"return_id"`
	Approved         bool      `json:"approved"`
	RefundPercent    int       `json:"refund_percent"`
	FinalAmountCents *int64    `json:"final_amount_cents,omitempty"`
	FinalCoins       *int64    `json:"final_coins,omitempty"`
	DecidedBy        uuid.UUID `json:"decided_by"`
}

// RefundSettledEvent reports a completed wallet credit for a return.
type RefundSettledEvent struct {
	ReturnID            uuid.UUID `json:"return_id"`
	OrderID             uuid.UUID `json:"order_id"`
	CustomerID          uuid.UUID `json:"customer_id"`
	WalletTransactionID uuid.UUID `json:"wallet_transaction_id"`
	CoinsCredited       int64     `json:"coins_credited"`
	BalanceAfter        int64     `json:"balance_after"`
	SettledAt           time.Time `json:"settled_at"`
}

// OTPLockedOutEvent flags repeated verification failures on an order.
type OTPLockedOutEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	FailedAttempts int       `json:"failed_attempts"`
	LockedUntil    time.Time `json:"locked_until"`
}

// NotificationRequestedEvent tells downstream systems to alert a user.
type NotificationRequestedEvent struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	UserID         uuid.UUID              `json:"user_id"`
	ReturnID       *uuid.UUID             `json:"return_id,omitempty"`
	OrderID        *uuid.UUID             `json:"order_id,omitempty"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Body           string                 `json:"body"`
}
