package enums

import "fmt"

// CardVersion distinguishes the printing variant of a card. Each variant
// carries its own price and stock count.
type CardVersion string

const (
	CardVersionNormal CardVersion = "normal"
	CardVersionFoil   CardVersion = "foil"
)

var validCardVersions = []CardVersion{
	CardVersionNormal,
	CardVersionFoil,
}

// String implements fmt.Stringer.
func (c CardVersion) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CardVersion.
func (c CardVersion) IsValid() bool {
	for _, candidate := range validCardVersions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCardVersion converts raw input into a CardVersion.
func ParseCardVersion(value string) (CardVersion, error) {
	for _, candidate := range validCardVersions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid card version %q", value)
}
