package enums

import "fmt"

// DeductionType classifies amounts subtracted from a computed refund.
type DeductionType string

const (
	DeductionTypePickupCharge  DeductionType = "pickup_charge"
	DeductionTypeDamagePenalty DeductionType = "damage_penalty"
	DeductionTypeRestockingFee DeductionType = "restocking_fee"
	DeductionTypeProcessingFee DeductionType = "processing_fee"
)

var validDeductionTypes = []DeductionType{
	DeductionTypePickupCharge,
	DeductionTypeDamagePenalty,
	DeductionTypeRestockingFee,
	DeductionTypeProcessingFee,
}

// IsValid reports whether the value matches the canonical deduction type enum.
func (d DeductionType) IsValid() bool {
	for _, candidate := range validDeductionTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeductionType converts the raw string to DeductionType.
func ParseDeductionType(value string) (DeductionType, error) {
	for _, candidate := range validDeductionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deduction type %q", value)
}
