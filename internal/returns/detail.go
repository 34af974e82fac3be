package returns

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
)

// DetailMetrics carries figures derived from the audit trail rather than
// stored on the aggregate. Stage latencies stay nil until the return has
// actually reached the stage.
type DetailMetrics struct {
	OriginalAmountCents int64 `json:"original_amount_cents"`
	AgeHours            int64 `json:"age_hours"`
	HoursInStatus       int64 `json:"hours_in_status"`
	StatusMoves         int   `json:"status_moves"`
	FailedPickups       int   `json:"failed_pickups"`

	TotalProcessingHours   *int64 `json:"total_processing_hours,omitempty"`
	PickupLatencyHours     *int64 `json:"pickup_latency_hours,omitempty"`
	AssessmentLatencyHours *int64 `json:"assessment_latency_hours,omitempty"`
	SettlementLatencyHours *int64 `json:"settlement_latency_hours,omitempty"`
}

// Detail is the expanded single-return view: the aggregate, its full audit
// trail, and the derived metrics.
type Detail struct {
	Return  *models.Return              `json:"return"`
	History []models.ReturnStatusUpdate `json:"history"`
	Metrics DetailMetrics               `json:"metrics"`
}

func (s *service) GetDetail(ctx context.Context, returnID uuid.UUID) (*Detail, error) {
	ret, err := s.repo.FindWithHistory(ctx, returnID)
	if err != nil {
		return nil, err
	}
	return buildDetail(ret, s.now()), nil
}

func (s *service) GetDetailForCustomer(ctx context.Context, customerID, returnID uuid.UUID) (*Detail, error) {
	detail, err := s.GetDetail(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if detail.Return.CustomerID != customerID {
		// Same surface as a miss so return ids stay unguessable.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
	}
	return detail, nil
}

func buildDetail(ret *models.Return, now time.Time) *Detail {
	metrics := DetailMetrics{
		OriginalAmountCents: ret.OriginalAmountCents(),
		AgeHours:            int64(now.Sub(ret.CreatedAt).Hours()),
		StatusMoves:         len(ret.StatusUpdates),
	}

	statusSince := ret.CreatedAt
	var pickedAt, assessedAt, completedAt *time.Time
	for _, update := range ret.StatusUpdates {
		if update.ToStatus == enums.ReturnStatusPickupFailed {
			metrics.FailedPickups++
		}
		if update.ToStatus == ret.Status && update.CreatedAt.After(statusSince) {
			statusSince = update.CreatedAt
		}
		switch update.ToStatus {
		case enums.ReturnStatusPickedUp:
			pickedAt = firstAt(pickedAt, update.CreatedAt)
		case enums.ReturnStatusQualityChecked:
			assessedAt = firstAt(assessedAt, update.CreatedAt)
		case enums.ReturnStatusCompleted:
			completedAt = firstAt(completedAt, update.CreatedAt)
		}
	}
	metrics.HoursInStatus = int64(now.Sub(statusSince).Hours())

	if pickedAt != nil {
		metrics.PickupLatencyHours = hoursBetween(ret.CreatedAt, *pickedAt)
		if assessedAt != nil {
			metrics.AssessmentLatencyHours = hoursBetween(*pickedAt, *assessedAt)
		}
	}
	if assessedAt != nil && completedAt != nil {
		metrics.SettlementLatencyHours = hoursBetween(*assessedAt, *completedAt)
	}
	if completedAt != nil {
		metrics.TotalProcessingHours = hoursBetween(ret.CreatedAt, *completedAt)
	}

	history := ret.StatusUpdates
	ret.StatusUpdates = nil

	return &Detail{Return: ret, History: history, Metrics: metrics}
}

func firstAt(existing *time.Time, at time.Time) *time.Time {
	if existing != nil {
		return existing
	}
	return &at
}

func hoursBetween(from, to time.Time) *int64 {
	hours := int64(to.Sub(from).Hours())
	return &hours
}
