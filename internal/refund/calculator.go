package refund

import (
	"github.com/shopspring/decimal"

	"github.com/trovamart/returns-backend/pkg/config"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/types"
)

// Calculator derives refund amounts and coin equivalents from the immutable
// original amount. Every figure is recomputed from inputs on each call; the
// calculator never trusts a previously stored intermediate.
type Calculator struct {
	pickupChargeCents    int64
	coinsPerCurrencyUnit int64
}

// NewCalculator builds a calculator from the configured policy.
func NewCalculator(policy config.ReturnPolicyConfig) Calculator {
	return Calculator{
		pickupChargeCents:    policy.PickupChargeCents,
		coinsPerCurrencyUnit: policy.CoinsPerCurrencyUnit,
	}
}

// Quote is the intermediate refund math before deductions.
type Quote struct {
	OriginalAmountCents int64
	RefundPercent       int
	RefundAmountCents   int64
	CoinEquivalent      int64
}

// Quote applies the eligible percentage to the original amount. Fractions
// round down so the platform never over-credits.
func (c Calculator) Quote(originalAmountCents int64, refundPercent int) (Quote, error) {
	if originalAmountCents < 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "original amount must not be negative")
	}
	if refundPercent < 0 || refundPercent > 100 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "refund percent must be between 0 and 100")
	}

	refund := decimal.NewFromInt(originalAmountCents).
		Mul(decimal.NewFromInt(int64(refundPercent))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()

	return Quote{
		OriginalAmountCents: originalAmountCents,
		RefundPercent:       refundPercent,
		RefundAmountCents:   refund,
		CoinEquivalent:      c.Coins(refund),
	}, nil
}

// Finalize subtracts the deduction list from the quoted refund, clamping at
// zero. Deductions never drive the payout negative.
func (c Calculator) Finalize(quote Quote, deductions []types.Deduction) (finalAmountCents, finalCoins int64) {
	final := quote.RefundAmountCents
	for _, d := range deductions {
		final -= d.AmountCents
	}
	if final < 0 {
		final = 0
	}
	return final, c.Coins(final)
}

// Coins converts an amount to loyalty coins at the configured rate.
func (c Calculator) Coins(amountCents int64) int64 {
	return amountCents * c.coinsPerCurrencyUnit
}

// PickupChargeDeduction resolves whether a pickup charge applies. An admin
// override wins outright over the reason-based rule; company-fault reasons
// ship back free, customer-preference reasons pay the flat charge. Returns
// nil when no charge applies.
func (c Calculator) PickupChargeDeduction(review *types.AdminReview, reason enums.ReturnReason) *types.Deduction {
	if review != nil && review.PickupChargeOverride != nil {
		if !*review.PickupChargeOverride {
			return nil
		}
		return &types.Deduction{
			Type:        enums.DeductionTypePickupCharge,
			AmountCents: c.pickupChargeCents,
			Reason:      "Pickup charge applied by admin override",
			Source:      types.DeductionSourceAdminOverride,
			AppliedBy:   review.OverriddenBy,
			AppliedAt:   review.OverriddenAt,
		}
	}
	if reason.IsCompanyFault() {
		return nil
	}
	return &types.Deduction{
		Type:        enums.DeductionTypePickupCharge,
		AmountCents: c.pickupChargeCents,
		Reason:      "Pickup charge for customer-preference return",
		Source:      types.DeductionSourcePolicy,
	}
}

// ApplyPickupCharge appends the resolved pickup charge unless a pickup charge
// is already present. The charge appears at most once per return.
func (c Calculator) ApplyPickupCharge(deductions []types.Deduction, review *types.AdminReview, reason enums.ReturnReason) []types.Deduction {
	if HasPickupCharge(deductions) {
		return deductions
	}
	charge := c.PickupChargeDeduction(review, reason)
	if charge == nil {
		return deductions
	}
	return append(deductions, *charge)
}

// HasPickupCharge reports whether the deduction list already carries a pickup
// charge.
func HasPickupCharge(deductions []types.Deduction) bool {
	for _, d := range deductions {
		if d.Type == enums.DeductionTypePickupCharge {
			return true
		}
	}
	return false
}

// Backfill recomputes the final amount and coins on a decision persisted
// before those fields existed. It is deterministic: re-running it on the same
// decision always lands on the same figures.
func (c Calculator) Backfill(record *types.RefundRecord) (changed bool, err error) {
	if record == nil || record.Decision == nil || !record.Decision.Approved {
		return false, nil
	}
	decision := record.Decision
	if decision.FinalAmountCents != nil && decision.FinalCoins != nil {
		return false, nil
	}

	quote, err := c.Quote(record.OriginalAmountCents, decision.RefundPercent)
	if err != nil {
		return false, err
	}
	final, coins := c.Finalize(quote, decision.Deductions)
	decision.FinalAmountCents = &final
	decision.FinalCoins = &coins
	return true, nil
}
