package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/api/responses"
	"github.com/trovamart/returns-backend/api/validators"
	"github.com/trovamart/returns-backend/internal/returns"
	"github.com/trovamart/returns-backend/internal/settlement"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/logger"
	"github.com/trovamart/returns-backend/pkg/pagination"
)

// AdminListReturns pages the workflow backlog, optionally filtered to a set
// of comma-separated statuses.
func AdminListReturns(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
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

		var statuses []enums.ReturnStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				status, parseErr := enums.ParseReturnStatus(strings.TrimSpace(part))
				if parseErr != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
					return
				}
				statuses = append(statuses, status)
			}
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

// AdminReturnDetail is the unscoped detail view for back-office screens.
func AdminReturnDetail(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetDetail(r.Context(), returnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminStartReview claims a requested return for review.
func AdminStartReview(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.StartReview(r.Context(), returnID, adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// AdminReview records the approve/reject ruling on a return under review.
func AdminReview(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		adminID, err := actorID(r)
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
			Approve              bool    `json:"approve"`
			Notes                *string `json:"notes"`
			PickupChargeOverride *bool   `json:"pickup_charge_override"`
		}
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.Review(r.Context(), returns.ReviewInput{
			ReturnID:             returnID,
			AdminID:              adminID,
			Approve:              body.Approve,
			Notes:                body.Notes,
			PickupChargeOverride: body.PickupChargeOverride,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// AdminAssignWarehouse routes an approved return to a warehouse manager.
func AdminAssignWarehouse(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable"))
			return
		}

		adminID, err := actorID(r)
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
			ManagerID uuid.UUID `json:"manager_id" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.AssignWarehouse(r.Context(), returns.AssignWarehouseInput{
			ReturnID:  returnID,
			AdminID:   adminID,
			ManagerID: body.ManagerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// AdminRefundDecision records the binding refund ruling as an admin.
func AdminRefundDecision(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return refundDecision(svc, logg, enums.ActorRoleAdmin)
}

// AdminSettle credits the wallet for one refund-approved return.
func AdminSettle(processor *settlement.Processor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if processor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement processor unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		returnID, err := pathUUID(r, "returnID", "return id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := processor.Settle(r.Context(), settlement.SettleInput{
			ReturnID: returnID,
			ActorID:  adminID,
			Role:     enums.ActorRoleAdmin,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// AdminSettleBulk settles a batch of returns, isolating per-item failures.
func AdminSettleBulk(processor *settlement.Processor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if processor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement processor unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body struct {
			ReturnIDs []uuid.UUID `json:"return_ids" validate:"required,min=1"`
		}
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := processor.SettleBulk(r.Context(), settlement.BulkInput{
			ReturnIDs: body.ReturnIDs,
			ActorID:   adminID,
			Role:      enums.ActorRoleAdmin,
		})
		if result == nil && err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// Partial failure still returns the per-item breakdown with a 200.
		responses.WriteSuccess(w, result)
	}
}
