package enums

import "fmt"

// ReturnStatus is the authoritative workflow position of a return request.
type ReturnStatus string

const (
	ReturnStatusRequested         ReturnStatus = "requested"
	ReturnStatusAdminReview       ReturnStatus = "admin_review"
	ReturnStatusApproved          ReturnStatus = "approved"
	ReturnStatusRejected          ReturnStatus = "rejected"
	ReturnStatusWarehouseAssigned ReturnStatus = "warehouse_assigned"
	ReturnStatusPickupScheduled   ReturnStatus = "pickup_scheduled"
	ReturnStatusPickupFailed      ReturnStatus = "pickup_failed"
	ReturnStatusPickupRescheduled ReturnStatus = "pickup_rescheduled"
	ReturnStatusPickedUp          ReturnStatus = "picked_up"
	ReturnStatusInWarehouse       ReturnStatus = "in_warehouse"
	ReturnStatusQualityChecked    ReturnStatus = "quality_checked"
	ReturnStatusRefundApproved    ReturnStatus = "refund_approved"
	ReturnStatusRefundProcessed   ReturnStatus = "refund_processed"
	ReturnStatusCompleted         ReturnStatus = "completed"
	ReturnStatusCancelled         ReturnStatus = "cancelled"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusRequested,
	ReturnStatusAdminReview,
	ReturnStatusApproved,
	ReturnStatusRejected,
	ReturnStatusWarehouseAssigned,
	ReturnStatusPickupScheduled,
	ReturnStatusPickupFailed,
	ReturnStatusPickupRescheduled,
	ReturnStatusPickedUp,
	ReturnStatusInWarehouse,
	ReturnStatusQualityChecked,
	ReturnStatusRefundApproved,
	ReturnStatusRefundProcessed,
	ReturnStatusCompleted,
	ReturnStatusCancelled,
}

// IsValid reports whether the value matches the canonical return status enum.
func (s ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the workflow.
func (s ReturnStatus) IsTerminal() bool {
	switch s {
	case ReturnStatusCompleted, ReturnStatusRejected, ReturnStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseReturnStatus converts the raw string to ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
