package enums

import "fmt"

// ReturnReason captures why the customer is sending merchandise back.
type ReturnReason string

const (
	ReturnReasonDefective        ReturnReason = "defective"
	ReturnReasonWrongItem        ReturnReason = "wrong_item"
	ReturnReasonNotAsDescribed   ReturnReason = "not_as_described"
	ReturnReasonQualityIssue     ReturnReason = "quality_issue"
	ReturnReasonChangedMind      ReturnReason = "changed_mind"
	ReturnReasonSizeIssue        ReturnReason = "size_issue"
	ReturnReasonDamagedInTransit ReturnReason = "damaged_in_transit"
)

var validReturnReasons = []ReturnReason{
	ReturnReasonDefective,
	ReturnReasonWrongItem,
	ReturnReasonNotAsDescribed,
	ReturnReasonQualityIssue,
	ReturnReasonChangedMind,
	ReturnReasonSizeIssue,
	ReturnReasonDamagedInTransit,
}

// IsValid reports whether the value matches the canonical return reason enum.
func (r ReturnReason) IsValid() bool {
	for _, candidate := range validReturnReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsCompanyFault reports whether the reason is attributable to the platform
// rather than customer preference. Company-fault reasons ship back free.
func (r ReturnReason) IsCompanyFault() bool {
	switch r {
	case ReturnReasonDefective, ReturnReasonWrongItem, ReturnReasonNotAsDescribed,
		ReturnReasonQualityIssue, ReturnReasonDamagedInTransit:
		return true
	default:
		return false
	}
}

// ParseReturnReason converts the raw string to ReturnReason.
func ParseReturnReason(value string) (ReturnReason, error) {
	for _, candidate := range validReturnReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return reason %q", value)
}
