package enums

import "fmt"

// ItemCondition is the warehouse quality-assessment outcome for received goods.
type ItemCondition string

const (
	ItemConditionIntact      ItemCondition = "intact"
	ItemConditionMinorDamage ItemCondition = "minor_damage"
	ItemConditionMajorDamage ItemCondition = "major_damage"
	ItemConditionUnusable    ItemCondition = "unusable"
)

var validItemConditions = []ItemCondition{
	ItemConditionIntact,
	ItemConditionMinorDamage,
	ItemConditionMajorDamage,
	ItemConditionUnusable,
}

// IsValid reports whether the value matches the canonical item condition enum.
func (i ItemCondition) IsValid() bool {
	for _, candidate := range validItemConditions {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemCondition converts the raw string to ItemCondition.
func ParseItemCondition(value string) (ItemCondition, error) {
	for _, candidate := range validItemConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item condition %q", value)
}
