package returns

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/internal/eligibility"
	"github.com/trovamart/returns-backend/internal/refund"
	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/outbox"
	"github.com/trovamart/returns-backend/pkg/outbox/payloads"
	"github.com/trovamart/returns-backend/pkg/pagination"
	"github.com/trovamart/returns-backend/pkg/types"
)

// Service orchestrates the return lifecycle end to end: intake, review,
// warehouse routing, the pickup loop, inspection, and the refund decision.
// Settlement lives in its own package and drives the final transitions
// through Transition.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Return, error)
	CheckEligibility(ctx context.Context, customerID, orderID uuid.UUID) (types.EligibilitySnapshot, error)
	StartReview(ctx context.Context, returnID, adminID uuid.UUID) (*models.Return, error)
	Review(ctx context.Context, input ReviewInput) (*models.Return, error)
	AssignWarehouse(ctx context.Context, input AssignWarehouseInput) (*models.Return, error)
	SchedulePickup(ctx context.Context, input SchedulePickupInput) (*models.Return, error)
	MarkPickupFailed(ctx context.Context, input PickupFailureInput) (*models.Return, error)
	MarkPickupRescheduled(ctx context.Context, input RescheduleInput) (*models.Return, error)
	Receive(ctx context.Context, input ReceiveInput) (*models.Return, error)
	Assess(ctx context.Context, input AssessInput) (*models.Return, error)
	Recommend(ctx context.Context, input RecommendInput) (*models.Return, error)
	Decide(ctx context.Context, input DecideInput) (*models.Return, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Return, error)
	Get(ctx context.Context, returnID uuid.UUID) (*models.Return, error)
	GetForCustomer(ctx context.Context, customerID, returnID uuid.UUID) (*models.Return, error)
	GetDetail(ctx context.Context, returnID uuid.UUID) (*Detail, error)
	GetDetailForCustomer(ctx context.Context, customerID, returnID uuid.UUID) (*Detail, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ReturnList, error)
	ListByStatus(ctx context.Context, statuses []enums.ReturnStatus, params pagination.Params) (*ReturnList, error)

	// Transition applies one validated status move in its own transaction.
	Transition(ctx context.Context, input TransitionInput) (*models.Return, error)
	// TransitionTx is Transition inside a caller-owned transaction, used by
	// the OTP gateway and the settlement processor.
	TransitionTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.Return, error)
}

type service struct {
	repo       Repository
	orders     OrderStore
	agents     AgentStore
	tx         txRunner
	outbox     outboxPublisher
	evaluator  eligibility.Evaluator
	calculator refund.Calculator
	now        clock
}

// NewService builds the return workflow service with its dependencies.
func NewService(
	repo Repository,
	orders OrderStore,
	agents AgentStore,
	tx txRunner,
	outboxSvc outboxPublisher,
	evaluator eligibility.Evaluator,
	calculator refund.Calculator,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if agents == nil {
		return nil, fmt.Errorf("agent store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:       repo,
		orders:     orders,
		agents:     agents,
		tx:         tx,
		outbox:     outboxSvc,
		evaluator:  evaluator,
		calculator: calculator,
		now:        time.Now,
	}, nil
}

// newRequestID mints the human-facing identifier, e.g. RET-20260315-4F7A2C.
func newRequestID(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("RET-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}

func (s *service) CheckEligibility(ctx context.Context, customerID, orderID uuid.UUID) (types.EligibilitySnapshot, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return types.EligibilitySnapshot{}, err
	}
	if order.CustomerID != customerID {
		return types.EligibilitySnapshot{}, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	return s.evaluator.Evaluate(order, s.now()), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Return, error) {
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid return reason %q", input.Reason))
	}
	if len(input.EvidenceImages) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one evidence image is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}

	now := s.now()
	snapshot := s.evaluator.Evaluate(order, now)
	if !snapshot.Eligible {
		reason := "order is not eligible for return"
		if snapshot.Reason != nil {
			reason = *snapshot.Reason
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, reason).WithDetails(snapshot)
	}

	items, err := buildItems(order, input.Items)
	if err != nil {
		return nil, err
	}
	var originalAmount int64
	for _, item := range items {
		originalAmount += item.TotalCents
	}

	ret := &models.Return{
		ID:             uuid.New(),
		RequestID:      newRequestID(now),
		OrderID:        order.ID,
		CustomerID:     input.CustomerID,
		Reason:         input.Reason,
		EvidenceImages: input.EvidenceImages,
		Status:         enums.ReturnStatusRequested,
		Eligibility:    snapshot,
		Refund: types.RefundRecord{
			OriginalAmountCents: originalAmount,
			Processing:          types.ProcessingRecord{Status: enums.ProcessingStatusPending},
		},
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if existing, err := repo.FindActiveByOrder(ctx, order.ID); err != nil {
			return err
		} else if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "an active return already exists for this order")
		}

		if err := repo.Create(ctx, ret); err != nil {
			return err
		}
		for i := range items {
			items[i].ReturnID = ret.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return err
		}

		initial := enums.ReturnStatusRequested
		if err := repo.AppendStatusUpdate(ctx, &models.ReturnStatusUpdate{
			ReturnID:   ret.ID,
			FromStatus: enums.ReturnStatusRequested,
			ToStatus:   enums.ReturnStatusRequested,
			ActorID:    &input.CustomerID,
			ActorRole:  enums.ActorRoleCustomer,
		}); err != nil {
			return err
		}

		if err := s.orders.SetReturnStateTx(ctx, tx, order.ID, true, &initial); err != nil {
			return err
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnRequested,
			AggregateType: enums.AggregateReturn,
			AggregateID:   ret.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: enums.ActorRoleCustomer},
			Data: payloads.ReturnRequestedEvent{
				ReturnID:            ret.ID,
				RequestID:           ret.RequestID,
				OrderID:             order.ID,
				CustomerID:          input.CustomerID,
				Reason:              input.Reason,
				ItemCount:           len(items),
				OriginalAmountCents: originalAmount,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	ret.Items = items
	return ret, nil
}

func buildItems(order *models.Order, inputs []ItemInput) ([]models.ReturnItem, error) {
	lines := make(map[uuid.UUID]models.OrderLineItem, len(order.LineItems))
	for _, line := range order.LineItems {
		lines[line.ID] = line
	}

	seen := make(map[uuid.UUID]bool, len(inputs))
	items := make([]models.ReturnItem, 0, len(inputs))
	for _, in := range inputs {
		line, ok := lines[in.OrderLineItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item does not belong to this order")
		}
		if seen[in.OrderLineItemID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate order line in request")
		}
		seen[in.OrderLineItemID] = true
		if in.Qty <= 0 || in.Qty > line.Qty {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity for %s must be between 1 and %d", line.Name, line.Qty))
		}
		items = append(items, models.ReturnItem{
			ID:              uuid.New(),
			OrderLineItemID: line.ID,
			ProductID:       line.ProductID,
			VariantID:       line.VariantID,
			Name:            line.Name,
			Kind:            line.Kind,
			Qty:             in.Qty,
			UnitPriceCents:  line.UnitPriceCents,
			TotalCents:      line.UnitPriceCents * int64(in.Qty),
		})
	}
	return items, nil
}

// Transition applies one validated move in a fresh transaction.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Return, error) {
	var ret *models.Return
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		ret, err = s.TransitionTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// TransitionTx validates the move against the transition table, applies any
// aggregate mutation, bumps the optimistic version, appends the audit entry,
// refreshes the order projection, and queues the status-changed event. The
// status write and the audit append always land together or not at all.
func (s *service) TransitionTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.Return, error) {
	repo := s.repo.WithTx(tx)

	ret, err := repo.FindByID(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}

	from := ret.Status
	if err := ValidateTransition(from, input.To, input.ActorRole); err != nil {
		return nil, err
	}

	if input.Mutate != nil {
		if err := input.Mutate(ret); err != nil {
			return nil, err
		}
	}

	ret.Status = input.To
	if err := repo.UpdateVersioned(ctx, ret, ret.Version); err != nil {
		return nil, err
	}

	if err := repo.AppendStatusUpdate(ctx, &models.ReturnStatusUpdate{
		ReturnID:   ret.ID,
		FromStatus: from,
		ToStatus:   input.To,
		ActorID:    input.ActorID,
		ActorRole:  input.ActorRole,
		Notes:      input.Notes,
		Automatic:  input.Automatic,
	}); err != nil {
		return nil, err
	}

	status := input.To
	if err := s.orders.SetReturnStateTx(ctx, tx, ret.OrderID, !input.To.IsTerminal(), &status); err != nil {
		return nil, err
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReturnStatusChanged,
		AggregateType: enums.AggregateReturn,
		AggregateID:   ret.ID,
		Actor:         actorRef(input.ActorID, input.ActorRole),
		Data: payloads.ReturnStatusChangedEvent{
			ReturnID:   ret.ID,
			RequestID:  ret.RequestID,
			OrderID:    ret.OrderID,
			CustomerID: ret.CustomerID,
			FromStatus: from,
			ToStatus:   input.To,
			ActorRole:  input.ActorRole,
			Automatic:  input.Automatic,
		},
		OccurredAt: s.now(),
	}); err != nil {
		return nil, err
	}

	if input.After != nil {
		if err := input.After(tx, ret); err != nil {
			return nil, err
		}
	}

	return ret, nil
}

func actorRef(actorID *uuid.UUID, role enums.ActorRole) *outbox.ActorRef {
	if actorID == nil {
		return &outbox.ActorRef{Role: role}
	}
	return &outbox.ActorRef{UserID: *actorID, Role: role}
}

func (s *service) StartReview(ctx context.Context, returnID, adminID uuid.UUID) (*models.Return, error) {
	return s.Transition(ctx, TransitionInput{
		ReturnID:  returnID,
		To:        enums.ReturnStatusAdminReview,
		ActorID:   &adminID,
		ActorRole: enums.ActorRoleAdmin,
	})
}

func (s *service) Review(ctx context.Context, input ReviewInput) (*models.Return, error) {
	target := enums.ReturnStatusApproved
	if !input.Approve {
		target = enums.ReturnStatusRejected
	}
	now := s.now()

	return s.Transition(ctx, TransitionInput{
		ReturnID:  input.ReturnID,
		To:        target,
		ActorID:   &input.AdminID,
		ActorRole: enums.ActorRoleAdmin,
		Notes:     input.Notes,
		Mutate: func(ret *models.Return) error {
			review := &types.AdminReview{
				Approved:   input.Approve,
				ReviewerID: input.AdminID,
				Notes:      input.Notes,
				ReviewedAt: now,
			}
			if input.PickupChargeOverride != nil {
				review.PickupChargeOverride = input.PickupChargeOverride
				review.OverriddenBy = &input.AdminID
				review.OverriddenAt = &now
			}
			ret.AdminReview = review
			return nil
		},
	})
}

func (s *service) AssignWarehouse(ctx context.Context, input AssignWarehouseInput) (*models.Return, error) {
	now := s.now()
	return s.Transition(ctx, TransitionInput{
		ReturnID:  input.ReturnID,
		To:        enums.ReturnStatusWarehouseAssigned,
		ActorID:   &input.AdminID,
		ActorRole: enums.ActorRoleAdmin,
		Mutate: func(ret *models.Return) error {
			record := ret.Warehouse
			if record == nil {
				record = &types.WarehouseRecord{}
			}
			record.AssignedManagerID = &input.ManagerID
			record.AssignedAt = &now
			ret.Warehouse = record
			return nil
		},
	})
}

func (s *service) SchedulePickup(ctx context.Context, input SchedulePickupInput) (*models.Return, error) {
	return s.schedulePickup(ctx, input)
}

// MarkPickupRescheduled acknowledges a failed attempt and flags the return
// for a fresh booking. SchedulePickup then routes pickup_rescheduled back
// into pickup_scheduled.
func (s *service) MarkPickupRescheduled(ctx context.Context, input RescheduleInput) (*models.Return, error) {
	return s.transitionWithManagerGuard(ctx, TransitionInput{
		ReturnID:  input.ReturnID,
		To:        enums.ReturnStatusPickupRescheduled,
		ActorID:   &input.WarehouseID,
		ActorRole: enums.ActorRoleWarehouse,
		Notes:     input.Notes,
	}, input.WarehouseID)
}

func (s *service) schedulePickup(ctx context.Context, input SchedulePickupInput) (*models.Return, error) {
	agent, err := s.agents.FindActive(ctx, input.AgentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if input.ScheduledFor.Before(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup must be scheduled in the future")
	}

	var attempt int
	return s.transitionWithManagerGuard(ctx, TransitionInput{
		ReturnID:  input.ReturnID,
		To:        enums.ReturnStatusPickupScheduled,
		ActorID:   &input.WarehouseID,
		ActorRole: enums.ActorRoleWarehouse,
		Mutate: func(ret *models.Return) error {
			record := ret.Warehouse
			if record == nil {
				record = &types.WarehouseRecord{}
			}
			attempt = 1
			if record.Pickup != nil {
				attempt = record.Pickup.Attempts + 1
			}
			record.Pickup = &types.PickupSchedule{
				AgentID:      agent.ID,
				ScheduledFor: input.ScheduledFor,
				ScheduledBy:  input.WarehouseID,
				ScheduledAt:  now,
				Attempts:     attempt,
			}
			ret.Warehouse = record
			return nil
		},
		After: func(tx *gorm.DB, ret *models.Return) error {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPickupScheduled,
				AggregateType: enums.AggregateReturn,
				AggregateID:   ret.ID,
				Actor:         &outbox.ActorRef{UserID: input.WarehouseID, Role: enums.ActorRoleWarehouse},
				Data: payloads.PickupScheduledEvent{
					ReturnID:     ret.ID,
					OrderID:      ret.OrderID,
					AgentID:      agent.ID,
					ScheduledFor: input.ScheduledFor,
					Attempt:      attempt,
				},
				OccurredAt: now,
			})
		},
	}, input.WarehouseID)
}

func (s *service) MarkPickupFailed(ctx context.Context, input PickupFailureInput) (*models.Return, error) {
	return s.Transition(ctx, TransitionInput{
		ReturnID:  input.ReturnID,
		To:        enums.ReturnStatusPickupFailed,
		ActorID:   &input.ActorID,
		ActorRole: input.ActorRole,
		Notes:     input.Notes,
	})
}

func (s *service) Receive(ctx context.Context, input ReceiveInput) (*models.Return, error) {
	now := s.now()
	return s.transitionWithManagerGuard(ctx, TransitionInput{
		ReturnID:  input.ReturnID,
		To:        enums.ReturnStatusInWarehouse,
		ActorID:   &input.WarehouseID,
		ActorRole: enums.ActorRoleWarehouse,
		Mutate: func(ret *models.Return) error {
			record := ret.Warehouse
			if record == nil {
				record = &types.WarehouseRecord{}
			}
			record.ReceivedBy = &input.WarehouseID
			record.ReceivedAt = &now
			ret.Warehouse = record
			return nil
		},
	}, input.WarehouseID)
}

func (s *service) Assess(ctx context.Context, input AssessInput) (*models.Return, error) {
	if !input.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid item condition %q", input.Condition))
	}
	if input.RefundEligiblePercent < 0 || input.RefundEligiblePercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund eligible percent must be between 0 and 100")
	}

	now := s.now()
	return s.transitionWithManagerGuard(ctx, TransitionInput{
		ReturnID:  input.ReturnID,
		To:        enums.ReturnStatusQualityChecked,
		ActorID:   &input.WarehouseID,
		ActorRole: enums.ActorRoleWarehouse,
		Notes:     input.Notes,
		Mutate: func(ret *models.Return) error {
			record := ret.Warehouse
			if record == nil {
				record = &types.WarehouseRecord{}
			}
			record.Assessment = &types.QualityAssessment{
				Condition:             input.Condition,
				RefundEligiblePercent: input.RefundEligiblePercent,
				Notes:                 input.Notes,
				AssessedBy:            input.WarehouseID,
				AssessedAt:            now,
			}
			ret.Warehouse = record
			return nil
		},
		After: func(tx *gorm.DB, ret *models.Return) error {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventQualityAssessed,
				AggregateType: enums.AggregateReturn,
				AggregateID:   ret.ID,
				Actor:         &outbox.ActorRef{UserID: input.WarehouseID, Role: enums.ActorRoleWarehouse},
				Data: payloads.QualityAssessedEvent{
					ReturnID:              ret.ID,
					Condition:             input.Condition,
					RefundEligiblePercent: input.RefundEligiblePercent,
					AssessedBy:            input.WarehouseID,
				},
				OccurredAt: now,
			})
		},
	}, input.WarehouseID)
}

// Recommend stores the warehouse proposal without moving status; the return
// must already be quality checked.
func (s *service) Recommend(ctx context.Context, input RecommendInput) (*models.Return, error) {
	if input.RefundPercent < 0 || input.RefundPercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund percent must be between 0 and 100")
	}

	now := s.now()
	var out *models.Return
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ret, err := repo.FindByID(ctx, input.ReturnID)
		if err != nil {
			return err
		}
		if ret.Status != enums.ReturnStatusQualityChecked {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "return has not been quality checked")
		}
		if err := s.requireAssignedManager(ret, input.WarehouseID); err != nil {
			return err
		}

		record := ret.Warehouse
		if record == nil {
			record = &types.WarehouseRecord{}
		}
		record.Recommendation = &types.WarehouseRecommendation{
			RefundPercent: input.RefundPercent,
			Deductions:    input.Deductions,
			Notes:         input.Notes,
			RecommendedBy: input.WarehouseID,
			RecommendedAt: now,
		}
		ret.Warehouse = record

		if err := repo.UpdateVersioned(ctx, ret, ret.Version); err != nil {
			return err
		}
		out = ret
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Decide(ctx context.Context, input DecideInput) (*models.Return, error) {
	if input.ActorRole != enums.ActorRoleAdmin && input.ActorRole != enums.ActorRoleWarehouse {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admin or warehouse staff can decide refunds")
	}
	if input.Approve && (input.RefundPercent < 0 || input.RefundPercent > 100) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund percent must be between 0 and 100")
	}

	target := enums.ReturnStatusRefundApproved
	if !input.Approve {
		target = enums.ReturnStatusRejected
	}
	now := s.now()

	var decided payloads.RefundDecidedEvent
	return s.Transition(ctx, TransitionInput{
		ReturnID:  input.ReturnID,
		To:        target,
		ActorID:   &input.ActorID,
		ActorRole: input.ActorRole,
		Notes:     input.Notes,
		Mutate: func(ret *models.Return) error {
			// Warehouse staff decide only on returns routed to them; admins
			// are exempt from the assignment guard.
			if input.ActorRole == enums.ActorRoleWarehouse {
				if err := s.requireAssignedManager(ret, input.ActorID); err != nil {
					return err
				}
			}

			decision := &types.RefundDecision{
				Approved:      input.Approve,
				RefundPercent: input.RefundPercent,
				Notes:         input.Notes,
				DecidedBy:     input.ActorID,
				DecidedAt:     now,
			}

			if input.Approve {
				quote, err := s.calculator.Quote(ret.Refund.OriginalAmountCents, input.RefundPercent)
				if err != nil {
					return err
				}
				deductions := s.calculator.ApplyPickupCharge(input.ExtraDeductions, ret.AdminReview, ret.Reason)
				final, coins := s.calculator.Finalize(quote, deductions)
				decision.Deductions = deductions
				decision.FinalAmountCents = &final
				decision.FinalCoins = &coins
			}

			ret.Refund.Decision = decision
			decided = payloads.RefundDecidedEvent{
				ReturnID:         ret.ID,
				Approved:         input.Approve,
				RefundPercent:    input.RefundPercent,
				FinalAmountCents: decision.FinalAmountCents,
				FinalCoins:       decision.FinalCoins,
				DecidedBy:        input.ActorID,
			}
			return nil
		},
		After: func(tx *gorm.DB, ret *models.Return) error {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventRefundDecided,
				AggregateType: enums.AggregateReturn,
				AggregateID:   ret.ID,
				Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: input.ActorRole},
				Data:          decided,
				OccurredAt:    now,
			})
		},
	})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Return, error) {
	now := s.now()
	var prior enums.ReturnStatus

	return s.Transition(ctx, TransitionInput{
		ReturnID:  input.ReturnID,
		To:        enums.ReturnStatusCancelled,
		ActorID:   &input.CustomerID,
		ActorRole: enums.ActorRoleCustomer,
		Notes:     input.Notes,
		Mutate: func(ret *models.Return) error {
			if ret.CustomerID != input.CustomerID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "return belongs to another customer")
			}
			prior = ret.Status
			return nil
		},
		After: func(tx *gorm.DB, ret *models.Return) error {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventReturnCancelled,
				AggregateType: enums.AggregateReturn,
				AggregateID:   ret.ID,
				Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: enums.ActorRoleCustomer},
				Data: payloads.ReturnCancelledEvent{
					ReturnID:    ret.ID,
					RequestID:   ret.RequestID,
					OrderID:     ret.OrderID,
					CustomerID:  ret.CustomerID,
					PriorStatus: prior,
					CancelledAt: now,
				},
				OccurredAt: now,
			})
		},
	})
}

func (s *service) Get(ctx context.Context, returnID uuid.UUID) (*models.Return, error) {
	return s.repo.FindByID(ctx, returnID)
}

func (s *service) GetForCustomer(ctx context.Context, customerID, returnID uuid.UUID) (*models.Return, error) {
	ret, err := s.repo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if ret.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
	}
	return ret, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ReturnList, error) {
	return s.repo.ListByCustomer(ctx, customerID, params)
}

func (s *service) ListByStatus(ctx context.Context, statuses []enums.ReturnStatus, params pagination.Params) (*ReturnList, error) {
	return s.repo.ListByStatus(ctx, statuses, params)
}

// transitionWithManagerGuard wraps Transition with the check that the acting
// warehouse user is the assigned manager for this return.
func (s *service) transitionWithManagerGuard(ctx context.Context, input TransitionInput, warehouseID uuid.UUID) (*models.Return, error) {
	mutate := input.Mutate
	input.Mutate = func(ret *models.Return) error {
		if err := s.requireAssignedManager(ret, warehouseID); err != nil {
			return err
		}
		if mutate != nil {
			return mutate(ret)
		}
		return nil
	}
	return s.Transition(ctx, input)
}

func (s *service) requireAssignedManager(ret *models.Return, warehouseID uuid.UUID) error {
	if ret.Warehouse == nil || ret.Warehouse.AssignedManagerID == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "return has no assigned warehouse manager")
	}
	if *ret.Warehouse.AssignedManagerID != warehouseID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "return is assigned to another warehouse manager")
	}
	return nil
}
