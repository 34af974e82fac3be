package returns

import (
	"fmt"

	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
)

type transitionKey struct {
	from enums.ReturnStatus
	role enums.ActorRole
}

// transitionTable is the single source of truth for which role may move a
// return from one status to the next. A pair absent from the table is
// disallowed; there is no fallback.
var transitionTable = map[transitionKey][]enums.ReturnStatus{
	// Intake and first-stage review.
	{enums.ReturnStatusRequested, enums.ActorRoleAdmin}:   {enums.ReturnStatusAdminReview},
	{enums.ReturnStatusAdminReview, enums.ActorRoleAdmin}: {enums.ReturnStatusApproved, enums.ReturnStatusRejected},

	// Warehouse hand-off and pickup loop.
	{enums.ReturnStatusApproved, enums.ActorRoleAdmin}:              {enums.ReturnStatusWarehouseAssigned},
	{enums.ReturnStatusWarehouseAssigned, enums.ActorRoleWarehouse}: {enums.ReturnStatusPickupScheduled},
	{enums.ReturnStatusPickupScheduled, enums.ActorRoleAgent}:       {enums.ReturnStatusPickedUp, enums.ReturnStatusPickupFailed},
	{enums.ReturnStatusPickupScheduled, enums.ActorRoleWarehouse}:   {enums.ReturnStatusPickupFailed},
	{enums.ReturnStatusPickupFailed, enums.ActorRoleWarehouse}:      {enums.ReturnStatusPickupRescheduled},
	{enums.ReturnStatusPickupRescheduled, enums.ActorRoleWarehouse}: {enums.ReturnStatusPickupScheduled},

	// Inspection and decision.
	{enums.ReturnStatusPickedUp, enums.ActorRoleWarehouse}:       {enums.ReturnStatusInWarehouse},
	{enums.ReturnStatusInWarehouse, enums.ActorRoleWarehouse}:    {enums.ReturnStatusQualityChecked},
	{enums.ReturnStatusQualityChecked, enums.ActorRoleAdmin}:     {enums.ReturnStatusRefundApproved, enums.ReturnStatusRejected},
	{enums.ReturnStatusQualityChecked, enums.ActorRoleWarehouse}: {enums.ReturnStatusRefundApproved, enums.ReturnStatusRejected},

	// Settlement runs the last two hops automatically.
	{enums.ReturnStatusRefundApproved, enums.ActorRoleSystem}:  {enums.ReturnStatusRefundProcessed},
	{enums.ReturnStatusRefundProcessed, enums.ActorRoleSystem}: {enums.ReturnStatusCompleted},

	// The customer can walk away any time before the goods are collected.
	{enums.ReturnStatusRequested, enums.ActorRoleCustomer}:         {enums.ReturnStatusCancelled},
	{enums.ReturnStatusAdminReview, enums.ActorRoleCustomer}:       {enums.ReturnStatusCancelled},
	{enums.ReturnStatusApproved, enums.ActorRoleCustomer}:          {enums.ReturnStatusCancelled},
	{enums.ReturnStatusWarehouseAssigned, enums.ActorRoleCustomer}: {enums.ReturnStatusCancelled},
	{enums.ReturnStatusPickupScheduled, enums.ActorRoleCustomer}:   {enums.ReturnStatusCancelled},
	{enums.ReturnStatusPickupFailed, enums.ActorRoleCustomer}:      {enums.ReturnStatusCancelled},
	{enums.ReturnStatusPickupRescheduled, enums.ActorRoleCustomer}: {enums.ReturnStatusCancelled},
}

// CanTransition reports whether role may move a return from one status to
// another.
func CanTransition(from, to enums.ReturnStatus, role enums.ActorRole) bool {
	for _, allowed := range transitionTable[transitionKey{from: from, role: role}] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTargets lists the statuses role may move a return at from into.
func AllowedTargets(from enums.ReturnStatus, role enums.ActorRole) []enums.ReturnStatus {
	targets := transitionTable[transitionKey{from: from, role: role}]
	out := make([]enums.ReturnStatus, len(targets))
	copy(out, targets)
	return out
}

// ValidateTransition returns a state-conflict error when the move is not in
// the table. Callers must leave the return untouched on error.
func ValidateTransition(from, to enums.ReturnStatus, role enums.ActorRole) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown return status %q", to))
	}
	if !CanTransition(from, to, role) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("role %s cannot move return from %s to %s", role, from, to))
	}
	return nil
}
