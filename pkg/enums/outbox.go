package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateReturn            OutboxAggregateType = "return"
	AggregateOrder             OutboxAggregateType = "order"
	AggregateWalletTransaction OutboxAggregateType = "wallet_transaction"
	AggregateNotification      OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateReturn,
	AggregateOrder,
	AggregateWalletTransaction,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventReturnRequested       OutboxEventType = "return_requested"
	EventReturnStatusChanged   OutboxEventType = "return_status_changed"
	EventReturnCancelled       OutboxEventType = "return_cancelled"
	EventPickupScheduled       OutboxEventType = "pickup_scheduled"
	EventPickupVerified        OutboxEventType = "pickup_verified"
	EventQualityAssessed       OutboxEventType = "quality_assessed"
	EventRefundDecided         OutboxEventType = "refund_decided"
	EventRefundSettled         OutboxEventType = "refund_settled"
	EventOTPLockedOut          OutboxEventType = "otp_locked_out"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventReturnRequested,
	EventReturnStatusChanged,
	EventReturnCancelled,
	EventPickupScheduled,
	EventPickupVerified,
	EventQualityAssessed,
	EventRefundDecided,
	EventRefundSettled,
	EventOTPLockedOut,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
