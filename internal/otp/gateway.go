package otp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/internal/returns"
	"github.com/trovamart/returns-backend/pkg/config"
	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/metrics"
	"github.com/trovamart/returns-backend/pkg/outbox"
	"github.com/trovamart/returns-backend/pkg/outbox/payloads"
	"github.com/trovamart/returns-backend/pkg/types"
)

// codePattern is the delivery OTP shape: six digits, nothing else. Malformed
// input is rejected before any attempt bookkeeping happens.
var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// OrderStore is the order-side persistence the gateway needs.
type OrderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// MarkOTPUsedTx flips the single-use flag, failing if it was already set.
	MarkOTPUsedTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, at time.Time) error
	SetLockoutTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, until time.Time) error
	InsertAttemptTx(ctx context.Context, tx *gorm.DB, attempt *models.OrderOTPAttempt) error
	CountFailedAttemptsSinceTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, since time.Time) (int, error)
}

// ReturnWorkflow is the slice of the return service the gateway drives.
type ReturnWorkflow interface {
	Get(ctx context.Context, returnID uuid.UUID) (*models.Return, error)
	TransitionTx(ctx context.Context, tx *gorm.DB, input returns.TransitionInput) (*models.Return, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// VerifyInput is one verification attempt by a pickup agent.
type VerifyInput struct {
	ReturnID   uuid.UUID
	Code       string
	AgentID    uuid.UUID
	RemoteAddr string
}

// LockoutDetails is attached to locked-verification errors so callers can
// tell the agent how long to wait.
type LockoutDetails struct {
	LockedUntil      time.Time `json:"locked_until"`
	RemainingMinutes int       `json:"remaining_minutes"`
}

// Gateway verifies the delivery OTP to confirm a return pickup. The code is
// single-use at the order level; repeated mismatches inside the failure
// window lock verification out entirely.
type Gateway struct {
	orders   OrderStore
	workflow ReturnWorkflow
	tx       txRunner
	outbox   outboxPublisher
	metrics  *metrics.SettlementMetrics
	policy   config.ReturnPolicyConfig
	now      func() time.Time
}

// NewGateway builds the pickup verification gateway.
func NewGateway(
	orders OrderStore,
	workflow ReturnWorkflow,
	tx txRunner,
	outboxSvc outboxPublisher,
	m *metrics.SettlementMetrics,
	policy config.ReturnPolicyConfig,
) (*Gateway, error) {
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if workflow == nil {
		return nil, fmt.Errorf("return workflow required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Gateway{
		orders:   orders,
		workflow: workflow,
		tx:       tx,
		outbox:   outboxSvc,
		metrics:  m,
		policy:   policy,
		now:      time.Now,
	}, nil
}

// VerifyPickup checks the entered code against the order's delivery OTP. On
// success the return advances to picked_up and the verification artifact is
// recorded on the return; the order-level code is spent either way the moment
// it matches once.
func (g *Gateway) VerifyPickup(ctx context.Context, input VerifyInput) (*models.Return, error) {
	if !codePattern.MatchString(input.Code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification code must be exactly 6 digits")
	}

	ret, err := g.workflow.Get(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	if ret.Status != enums.ReturnStatusPickupScheduled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return is not awaiting pickup")
	}
	if ret.Warehouse == nil || ret.Warehouse.Pickup == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "return has no pickup booking")
	}
	if ret.Warehouse.Pickup.AgentID != input.AgentID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pickup is booked for another agent")
	}

	order, err := g.orders.FindByID(ctx, ret.OrderID)
	if err != nil {
		return nil, err
	}

	now := g.now()

	if order.OTPLockedUntil != nil && order.OTPLockedUntil.After(now) {
		remaining := int(math.Ceil(order.OTPLockedUntil.Sub(now).Minutes()))
		return nil, pkgerrors.New(pkgerrors.CodeOTPLocked,
			fmt.Sprintf("verification locked, try again in %d minutes", remaining)).
			WithDetails(LockoutDetails{LockedUntil: *order.OTPLockedUntil, RemainingMinutes: remaining})
	}

	if order.OTPUsed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "verification code has already been used")
	}

	if subtle.ConstantTimeCompare([]byte(input.Code), []byte(order.OTPCode)) != 1 {
		return nil, g.recordFailure(ctx, order, input, now)
	}

	var verified *models.Return
	err = g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := g.orders.MarkOTPUsedTx(ctx, tx, order.ID, now); err != nil {
			return err
		}

		agentID := input.AgentID
		verified, err = g.workflow.TransitionTx(ctx, tx, returns.TransitionInput{
			ReturnID:  ret.ID,
			To:        enums.ReturnStatusPickedUp,
			ActorID:   &agentID,
			ActorRole: enums.ActorRoleAgent,
			Mutate: func(r *models.Return) error {
				record := r.Warehouse
				if record == nil {
					record = &types.WarehouseRecord{}
				}
				record.PickupVerification = &types.OTPVerification{
					CodeUsed:   input.Code,
					VerifiedBy: input.AgentID,
					VerifiedAt: now,
				}
				r.Warehouse = record
				return nil
			},
			After: func(tx *gorm.DB, r *models.Return) error {
				return g.outbox.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventPickupVerified,
					AggregateType: enums.AggregateReturn,
					AggregateID:   r.ID,
					Actor:         &outbox.ActorRef{UserID: input.AgentID, Role: enums.ActorRoleAgent},
					Data: payloads.PickupVerifiedEvent{
						ReturnID:   r.ID,
						OrderID:    r.OrderID,
						AgentID:    input.AgentID,
						VerifiedAt: now,
					},
					OccurredAt: now,
				})
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return verified, nil
}

// recordFailure logs the mismatch, applies the lockout when the trailing
// window fills up, and always returns the mismatch error.
func (g *Gateway) recordFailure(ctx context.Context, order *models.Order, input VerifyInput, now time.Time) error {
	var lockedUntil *time.Time
	var failures int

	err := g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		agentID := input.AgentID
		if err := g.orders.InsertAttemptTx(ctx, tx, &models.OrderOTPAttempt{
			OrderID:     order.ID,
			EnteredCode: input.Code,
			ActorID:     &agentID,
			RemoteAddr:  input.RemoteAddr,
			AttemptedAt: now,
		}); err != nil {
			return err
		}

		count, err := g.orders.CountFailedAttemptsSinceTx(ctx, tx, order.ID, now.Add(-g.policy.OTPFailureWindow))
		if err != nil {
			return err
		}
		failures = count
		if count < g.policy.OTPLockoutThreshold {
			return nil
		}

		until := now.Add(g.policy.OTPLockoutDuration)
		lockedUntil = &until
		if err := g.orders.SetLockoutTx(ctx, tx, order.ID, until); err != nil {
			return err
		}

		return g.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOTPLockedOut,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.AgentID, Role: enums.ActorRoleAgent},
			Data: payloads.OTPLockedOutEvent{
				OrderID:        order.ID,
				CustomerID:     order.CustomerID,
				FailedAttempts: count,
				LockedUntil:    until,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		return err
	}

	if lockedUntil != nil {
		g.metrics.IncOTPLockout()
		remaining := int(math.Ceil(lockedUntil.Sub(now).Minutes()))
		return pkgerrors.New(pkgerrors.CodeOTPLocked,
			fmt.Sprintf("verification locked after %d failed attempts, try again in %d minutes", failures, remaining)).
			WithDetails(LockoutDetails{LockedUntil: *lockedUntil, RemainingMinutes: remaining})
	}

	remaining := g.policy.OTPLockoutThreshold - failures
	return pkgerrors.New(pkgerrors.CodeOTPMismatch, "verification code does not match").
		WithDetails(map[string]int{"attempts_remaining": remaining})
}
