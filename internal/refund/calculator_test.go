package refund

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trovamart/returns-backend/pkg/config"
	"github.com/trovamart/returns-backend/pkg/enums"
	pkgerrors "github.com/trovamart/returns-backend/pkg/errors"
	"github.com/trovamart/returns-backend/pkg/types"
)

func newTestCalculator() Calculator {
	return NewCalculator(config.ReturnPolicyConfig{
		PickupChargeCents:    50,
		CoinsPerCurrencyUnit: 5,
	})
}

func boolPtr(b bool) *bool { return &b }

func TestQuoteEightyPercent(t *testing.T) {
	calc := newTestCalculator()

	quote, err := calc.Quote(400, 80)
	require.NoError(t, err)

	assert.Equal(t, int64(320), quote.RefundAmountCents)
	assert.Equal(t, int64(1600), quote.CoinEquivalent)
}

func TestQuoteRejectsBadPercent(t *testing.T) {
	calc := newTestCalculator()

	_, err := calc.Quote(400, 101)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = calc.Quote(400, -1)
	require.Error(t, err)

	_, err = calc.Quote(-5, 50)
	require.Error(t, err)
}

func TestQuoteRoundsDown(t *testing.T) {
	calc := newTestCalculator()

	quote, err := calc.Quote(333, 50)
	require.NoError(t, err)

	assert.Equal(t, int64(166), quote.RefundAmountCents)
}

func TestFinalizeWithPickupCharge(t *testing.T) {
	calc := newTestCalculator()

	quote, err := calc.Quote(400, 100)
	require.NoError(t, err)

	deductions := calc.ApplyPickupCharge(nil, nil, enums.ReturnReasonChangedMind)
	require.Len(t, deductions, 1)
	assert.Equal(t, int64(50), deductions[0].AmountCents)
	assert.Equal(t, types.DeductionSourcePolicy, deductions[0].Source)

	final, coins := calc.Finalize(quote, deductions)
	assert.Equal(t, int64(350), final)
	assert.Equal(t, int64(1750), coins)
}

func TestFinalizeClampsAtZero(t *testing.T) {
	calc := newTestCalculator()

	quote, err := calc.Quote(40, 100)
	require.NoError(t, err)

	final, coins := calc.Finalize(quote, []types.Deduction{{
		Type:        enums.DeductionTypePickupCharge,
		AmountCents: 50,
	}})
	assert.Equal(t, int64(0), final)
	assert.Equal(t, int64(0), coins)
}

func TestPickupChargeCompanyFaultIsFree(t *testing.T) {
	calc := newTestCalculator()

	for _, reason := range []enums.ReturnReason{
		enums.ReturnReasonDefective,
		enums.ReturnReasonWrongItem,
		enums.ReturnReasonNotAsDescribed,
		enums.ReturnReasonQualityIssue,
		enums.ReturnReasonDamagedInTransit,
	} {
		assert.Nil(t, calc.PickupChargeDeduction(nil, reason), string(reason))
	}

	assert.NotNil(t, calc.PickupChargeDeduction(nil, enums.ReturnReasonChangedMind))
	assert.NotNil(t, calc.PickupChargeDeduction(nil, enums.ReturnReasonSizeIssue))
}

func TestPickupChargeOverrideWins(t *testing.T) {
	calc := newTestCalculator()
	adminID := uuid.New()
	at := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	// Waive the charge on a normally chargeable reason.
	waived := &types.AdminReview{
		PickupChargeOverride: boolPtr(false),
		OverriddenBy:         &adminID,
		OverriddenAt:         &at,
	}
	assert.Nil(t, calc.PickupChargeDeduction(waived, enums.ReturnReasonChangedMind))

	// Force the charge on a company-fault reason.
	forced := &types.AdminReview{
		PickupChargeOverride: boolPtr(true),
		OverriddenBy:         &adminID,
		OverriddenAt:         &at,
	}
	charge := calc.PickupChargeDeduction(forced, enums.ReturnReasonDefective)
	require.NotNil(t, charge)
	assert.Equal(t, types.DeductionSourceAdminOverride, charge.Source)
	require.NotNil(t, charge.AppliedBy)
	assert.Equal(t, adminID, *charge.AppliedBy)
	require.NotNil(t, charge.AppliedAt)
	assert.Equal(t, at, *charge.AppliedAt)
}

func TestApplyPickupChargeOnlyOnce(t *testing.T) {
	calc := newTestCalculator()

	deductions := calc.ApplyPickupCharge(nil, nil, enums.ReturnReasonSizeIssue)
	require.Len(t, deductions, 1)

	deductions = calc.ApplyPickupCharge(deductions, nil, enums.ReturnReasonSizeIssue)
	assert.Len(t, deductions, 1)
}

func TestBackfillFillsMissingFinals(t *testing.T) {
	calc := newTestCalculator()

	record := &types.RefundRecord{
		OriginalAmountCents: 400,
		Decision: &types.RefundDecision{
			Approved:      true,
			RefundPercent: 80,
		},
	}

	changed, err := calc.Backfill(record)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, record.Decision.FinalAmountCents)
	assert.Equal(t, int64(320), *record.Decision.FinalAmountCents)
	require.NotNil(t, record.Decision.FinalCoins)
	assert.Equal(t, int64(1600), *record.Decision.FinalCoins)

	// Re-running lands on the same figures and reports no change.
	changed, err = calc.Backfill(record)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(320), *record.Decision.FinalAmountCents)
}

func TestBackfillSkipsUnapproved(t *testing.T) {
	calc := newTestCalculator()

	record := &types.RefundRecord{
		OriginalAmountCents: 400,
		Decision:            &types.RefundDecision{Approved: false, RefundPercent: 0},
	}

	changed, err := calc.Backfill(record)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, record.Decision.FinalAmountCents)
}

func TestCoinsRoundTrip(t *testing.T) {
	calc := newTestCalculator()

	for _, amount := range []int64{0, 1, 37, 400, 99999} {
		assert.Equal(t, amount*5, calc.Coins(amount))
	}
}
