package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/api/responses"
	"github.com/trovamart/returns-backend/api/validators"
	"github.com/trovamart/returns-backend/internal/returns"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/logger"
	"github.com/trovamart/returns-backend/pkg/pagination"
	"github.com/trovamart/returns-backend/pkg/types"
)

// WarehouseQueue pages every return currently in the warehouse's hands, from
// assignment through quality check.
func WarehouseQueue(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return statusQueue(svc, logg,
		enums.ReturnStatusWarehouseAssigned,
		enums.ReturnStatusPickupScheduled,
		enums.ReturnStatusPickupFailed,
		enums.ReturnStatusPickupRescheduled,
		enums.ReturnStatusPickedUp,
		enums.ReturnStatusInWarehouse,
		enums.ReturnStatusQualityChecked,
	)
}

// statusQueue is a fixed-filter listing: the actor sees the slice of the
// workflow they act on, paged like the admin backlog.
func statusQueue(svc returns.Service, logg *logger.Logger, statuses ...enums.ReturnStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByStatus(r.Context(), statuses, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// WarehouseSchedulePickup books an agent visit for an assigned return.
func WarehouseSchedulePickup(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		warehouseID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body struct {
			AgentID      uuid.UUID `json:"agent_id" validate:"required"`
			ScheduledFor time.Time `json:"scheduled_for" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.SchedulePickup(r.Context(), returns.SchedulePickupInput{
			ReturnID:     returnID,
			WarehouseID:  warehouseID,
			AgentID:      body.AgentID,
			ScheduledFor: body.ScheduledFor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// WarehouseReschedulePickup flags a failed pickup for a fresh booking.
func WarehouseReschedulePickup(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		warehouseID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body struct {
			Notes *string `json:"notes"`
		}
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		ret, err := svc.MarkPickupRescheduled(r.Context(), returns.RescheduleInput{
			ReturnID:    returnID,
			WarehouseID: warehouseID,
			Notes:       body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// WarehousePickupFailed records a missed pickup attempt reported by the
// warehouse.
func WarehousePickupFailed(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return pickupFailed(svc, logg, enums.ActorRoleWarehouse)
}

// WarehouseReceive confirms the parcel physically arrived.
func WarehouseReceive(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		warehouseID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.Receive(r.Context(), returns.ReceiveInput{
			ReturnID:    returnID,
			WarehouseID: warehouseID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// WarehouseAssess records the inspection outcome for a received return.
func WarehouseAssess(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		warehouseID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input returns.AssessInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ReturnID = returnID
		input.WarehouseID = warehouseID

		ret, err := svc.Assess(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// WarehouseRecommend files the non-binding refund proposal.
func WarehouseRecommend(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		warehouseID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input returns.RecommendInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ReturnID = returnID
		input.WarehouseID = warehouseID

		ret, err := svc.Recommend(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// WarehouseRefundDecision records the binding refund ruling as the assigned
// warehouse manager.
func WarehouseRefundDecision(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return refundDecision(svc, logg, enums.ActorRoleWarehouse)
}

// refundDecision is shared by the admin and warehouse surfaces; the service
// enforces who may actually rule on the given return.
func refundDecision(svc returns.Service, logg *logger.Logger, role enums.ActorRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body struct {
			Approve         bool              `json:"approve"`
			RefundPercent   int               `json:"refund_percent" validate:"gte=0,lte=100"`
			ExtraDeductions []types.Deduction `json:"extra_deductions"`
			Notes           *string           `json:"notes"`
		}
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.Decide(r.Context(), returns.DecideInput{
			ReturnID:        returnID,
			ActorID:         actor,
			ActorRole:       role,
			Approve:         body.Approve,
			RefundPercent:   body.RefundPercent,
			ExtraDeductions: body.ExtraDeductions,
			Notes:           body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// pickupFailed is shared by the warehouse and agent surfaces.
func pickupFailed(svc returns.Service, logg *logger.Logger, role enums.ActorRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body struct {
			Notes *string `json:"notes"`
		}
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		ret, err := svc.MarkPickupFailed(r.Context(), returns.PickupFailureInput{
			ReturnID:  returnID,
			ActorID:   actor,
			ActorRole: role,
			Notes:     body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}
