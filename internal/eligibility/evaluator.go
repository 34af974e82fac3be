package eligibility

import (
	"time"

	"github.com/trovamart/returns-backend/pkg/config"
	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/types"
)

const (
	ReasonNotDelivered  = "Order not delivered"
	ReasonWindowExpired = "Return window expired"
	ReasonActiveReturn  = "An active return already exists for this order"
)

// Evaluator computes whether an order's return window is open. It is pure:
// the same inputs always produce the same snapshot, so a stale snapshot can
// be refreshed at any time by re-running it.
type Evaluator struct {
	windowDays int
}

// NewEvaluator builds an evaluator from the configured policy.
func NewEvaluator(policy config.ReturnPolicyConfig) Evaluator {
	return Evaluator{windowDays: policy.WindowDays}
}

// Evaluate checks delivery state, the elapsed window, and the active-return
// flag, in that order. Elapsed time is floored to whole days: a request on
// day 7 after delivery is still eligible, day 8 is not.
func (e Evaluator) Evaluate(order *models.Order, now time.Time) types.EligibilitySnapshot {
	snapshot := types.EligibilitySnapshot{CheckedAt: now}

	if order == nil || order.DeliveredAt == nil || !order.Status.IsDelivered() {
		snapshot.Eligible = false
		snapshot.Reason = strPtr(ReasonNotDelivered)
		return snapshot
	}

	deliveredAt := *order.DeliveredAt
	snapshot.ExpiresAt = deliveredAt.Add(time.Duration(e.windowDays+1) * 24 * time.Hour)

	elapsedDays := int(now.Sub(deliveredAt).Hours() / 24)
	if elapsedDays > e.windowDays {
		snapshot.Eligible = false
		snapshot.DaysRemaining = 0
		snapshot.Reason = strPtr(ReasonWindowExpired)
		return snapshot
	}

	if order.HasActiveReturn {
		snapshot.Eligible = false
		snapshot.DaysRemaining = e.windowDays - elapsedDays
		snapshot.Reason = strPtr(ReasonActiveReturn)
		return snapshot
	}

	snapshot.Eligible = true
	snapshot.DaysRemaining = e.windowDays - elapsedDays
	return snapshot
}

func strPtr(s string) *string {
	return &s
}
