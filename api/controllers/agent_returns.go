package controllers

import (
	"net/http"

	"github.com/trovamart/returns-backend/api/responses"
	"github.com/trovamart/returns-backend/api/validators"
	"github.com/trovamart/returns-backend/internal/otp"
	"github.com/trovamart/returns-backend/internal/returns"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/logger"
)

// AgentPickupQueue pages the returns with an open pickup booking.
func AgentPickupQueue(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return statusQueue(svc, logg,
		enums.ReturnStatusPickupScheduled,
		enums.ReturnStatusPickupRescheduled,
	)
}

// AgentVerifyPickup checks the customer's delivery OTP at the doorstep and,
// on a match, advances the return to picked up.
func AgentVerifyPickup(gateway *otp.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "verification gateway unavailable"))
			return
		}

		agentID, err := actorID(r)
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
			Code string `json:"code" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := gateway.VerifyPickup(r.Context(), otp.VerifyInput{
			ReturnID:   returnID,
			Code:       body.Code,
			AgentID:    agentID,
			RemoteAddr: r.RemoteAddr,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ret)
	}
}

// AgentPickupFailed records a missed pickup reported from the field.
func AgentPickupFailed(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return pickupFailed(svc, logg, enums.ActorRoleAgent)
}
