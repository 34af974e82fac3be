package enums

import "fmt"

// ActorRole identifies which kind of actor is mutating a return.
type ActorRole string

const (
	ActorRoleCustomer  ActorRole = "customer"
	ActorRoleAdmin     ActorRole = "admin"
	ActorRoleWarehouse ActorRole = "warehouse"
	ActorRoleAgent     ActorRole = "agent"
	// ActorRoleSystem attributes automatic transitions, e.g. the two chained
	// settlement transitions.
	ActorRoleSystem ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleCustomer,
	ActorRoleAdmin,
	ActorRoleWarehouse,
	ActorRoleAgent,
	ActorRoleSystem,
}

// IsValid reports whether the value matches the canonical actor role enum.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts the raw string to ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
