package enums

import "fmt"

// EntityKind names the host entities whose deletion cascades into the
// relationship table.
type EntityKind string

const (
	EntityKindProduct  EntityKind = "product"
	EntityKindSupplier EntityKind = "supplier"
)

var validEntityKinds = []EntityKind{
	EntityKindProduct,
	EntityKindSupplier,
}

// IsValid checks whether the given kind matches the canonical enum.
func (k EntityKind) IsValid() bool {
	for _, candidate := range validEntityKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseEntityKind converts raw strings into EntityKind.
func ParseEntityKind(value string) (EntityKind, error) {
	for _, candidate := range validEntityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity kind %q", value)
}
