package enums

import "fmt"

// ItemKind describes the handling class of a returned line item.
type ItemKind string

const (
	ItemKindStandard  ItemKind = "standard"
	ItemKindFragile   ItemKind = "fragile"
	ItemKindOversized ItemKind = "oversized"
)

var validItemKinds = []ItemKind{
	ItemKindStandard,
	ItemKindFragile,
	ItemKindOversized,
}

// IsValid reports whether the value matches the canonical item kind enum.
func (i ItemKind) IsValid() bool {
	for _, candidate := range validItemKinds {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemKind converts the raw string to ItemKind.
func ParseItemKind(value string) (ItemKind, error) {
	for _, candidate := range validItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item kind %q", value)
}
