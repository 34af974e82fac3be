package settlement

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
)

// BulkInput settles many returns on behalf of one actor.
type BulkInput struct {
	ReturnIDs []uuid.UUID
	ActorID   uuid.UUID
	Role      enums.ActorRole
}

// BulkItemResult reports the outcome for a single return in a bulk run.
type BulkItemResult struct {
	ReturnID uuid.UUID `json:"return_id"`
	Settled  bool      `json:"settled"`
	Error    string    `json:"error,omitempty"`
}

// BulkResult aggregates a bulk settlement run. Failed items never stop the
// rest of the batch.
type BulkResult struct {
	Settled int              `json:"settled"`
	Failed  int              `json:"failed"`
	Items   []BulkItemResult `json:"items"`
}

// SettleBulk runs Settle for each return independently. The returned error
// aggregates the per-item failures; the result carries per-item detail.
func (p *Processor) SettleBulk(ctx context.Context, input BulkInput) (*BulkResult, error) {
	if len(input.ReturnIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one return id required")
	}

	result := &BulkResult{Items: make([]BulkItemResult, 0, len(input.ReturnIDs))}
	var errs error

	for _, returnID := range input.ReturnIDs {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}

		item := BulkItemResult{ReturnID: returnID}
		if _, err := p.Settle(ctx, SettleInput{ReturnID: returnID, ActorID: input.ActorID, Role: input.Role}); err != nil {
			item.Error = err.Error()
			result.Failed++
			errs = multierr.Append(errs, err)
		} else {
			item.Settled = true
			result.Settled++
		}
		result.Items = append(result.Items, item)
	}

	return result, errs
}
