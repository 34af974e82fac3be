package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/enums"
)

// EligibilitySnapshot records the return-window check performed at creation.
// It can be refreshed at any time by re-running the evaluator.
type EligibilitySnapshot struct {
	Eligible      bool      `json:"eligible"`
	DaysRemaining int       `json:"days_remaining"`
	ExpiresAt     time.Time `json:"expires_at"`
	Reason        *string   `json:"reason,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Deduction is an amount subtracted from a computed refund before settlement.
type Deduction struct {
	Type        enums.DeductionType `json:"type"`
	AmountCents int64               `json:"amount_cents"`
	Reason      string              `json:"reason"`
	// Source is "policy" or "admin_override". Override deductions also carry
	// the admin who forced them and when.
	Source    string     `json:"source,omitempty"`
	AppliedBy *uuid.UUID `json:"applied_by,omitempty"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

const (
	DeductionSourcePolicy        = "policy"
	DeductionSourceAdminOverride = "admin_override"
)

// AdminReview captures the first-stage review decision.
type AdminReview struct {
	Approved   bool      `json:"approved"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	Notes      *string   `json:"notes,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`

	// PickupChargeOverride is tri-state: nil means the reason-based policy
	// applies, true forces a charge, false waives it.
	PickupChargeOverride *bool      `json:"pickup_charge_override,omitempty"`
	OverriddenBy         *uuid.UUID `json:"overridden_by,omitempty"`
	OverriddenAt         *time.Time `json:"overridden_at,omitempty"`
}

// PickupSchedule is the warehouse-side plan for collecting the goods.
type PickupSchedule struct {
	AgentID      uuid.UUID `json:"agent_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
	ScheduledBy  uuid.UUID `json:"scheduled_by"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Attempts     int       `json:"attempts"`
}

// OTPVerification is the pickup confirmation artifact. It lives on the
// Return; the one-time code itself stays single-use at the order level.
type OTPVerification struct {
	CodeUsed   string    `json:"code_used"`
	VerifiedBy uuid.UUID `json:"verified_by"`
	VerifiedAt time.Time `json:"verified_at"`
}

// QualityAssessment is the warehouse inspection outcome.
type QualityAssessment struct {
	Condition             enums.ItemCondition `json:"condition"`
	RefundEligiblePercent int                 `json:"refund_eligible_percent"`
	Notes                 *string             `json:"notes,omitempty"`
	AssessedBy            uuid.UUID           `json:"assessed_by"`
	AssessedAt            time.Time           `json:"assessed_at"`
}

// WarehouseRecommendation is the warehouse proposal fed into the admin decision.
type WarehouseRecommendation struct {
	RefundPercent int         `json:"refund_percent"`
	Deductions    []Deduction `json:"deductions,omitempty"`
	Notes         *string     `json:"notes,omitempty"`
	RecommendedBy uuid.UUID   `json:"recommended_by"`
	RecommendedAt time.Time   `json:"recommended_at"`
}

// WarehouseRecord aggregates every warehouse-side artifact on a return.
type WarehouseRecord struct {
	AssignedManagerID  *uuid.UUID               `json:"assigned_manager_id,omitempty"`
	AssignedAt         *time.Time               `json:"assigned_at,omitempty"`
	Pickup             *PickupSchedule          `json:"pickup,omitempty"`
	PickupVerification *OTPVerification         `json:"pickup_verification,omitempty"`
	ReceivedBy         *uuid.UUID               `json:"received_by,omitempty"`
	ReceivedAt         *time.Time               `json:"received_at,omitempty"`
	Assessment         *QualityAssessment       `json:"assessment,omitempty"`
	Recommendation     *WarehouseRecommendation `json:"recommendation,omitempty"`
}

// RefundDecision is the final admin/warehouse ruling on the payout.
type RefundDecision struct {
	Approved         bool        `json:"approved"`
	RefundPercent    int         `json:"refund_percent"`
	Deductions       []Deduction `json:"deductions,omitempty"`
	FinalAmountCents *int64      `json:"final_amount_cents,omitempty"`
	FinalCoins       *int64      `json:"final_coins,omitempty"`
	Notes            *string     `json:"notes,omitempty"`
	DecidedBy        uuid.UUID   `json:"decided_by"`
	DecidedAt        time.Time   `json:"decided_at"`
}

// ProcessingRecord is the settlement latch. Status completed is one-way.
type ProcessingRecord struct {
	Status              enums.ProcessingStatus `json:"status"`
	ProcessedBy         *uuid.UUID             `json:"processed_by,omitempty"`
	ProcessedAt         *time.Time             `json:"processed_at,omitempty"`
	WalletTransactionID *uuid.UUID             `json:"wallet_transaction_id,omitempty"`
	CoinsCredited       int64                  `json:"coins_credited"`
}

// RefundRecord holds everything monetary about a return. OriginalAmountCents
// is fixed at creation and never changes; all math derives from it.
type RefundRecord struct {
	OriginalAmountCents int64            `json:"original_amount_cents"`
	Decision            *RefundDecision  `json:"decision,omitempty"`
	Processing          ProcessingRecord `json:"processing"`
}

// ReturnMetrics are derived durations; they are computed from timestamps and
// are never authoritative on their own.
type ReturnMetrics struct {
	TotalProcessingSeconds   *int64 `json:"total_processing_seconds,omitempty"`
	PickupLatencySeconds     *int64 `json:"pickup_latency_seconds,omitempty"`
	AssessmentLatencySeconds *int64 `json:"assessment_latency_seconds,omitempty"`
	SettlementLatencySeconds *int64 `json:"settlement_latency_seconds,omitempty"`
}
