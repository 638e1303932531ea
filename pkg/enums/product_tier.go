package enums

import "fmt"

// ProductTier classifies catalog entries for filtering and display.
type ProductTier string

const (
	ProductTierStandard    ProductTier = "standard"
	ProductTierAutomated   ProductTier = "automated"
	ProductTierIntelligent ProductTier = "intelligent"
	ProductTierLuxury      ProductTier = "luxury"
)

var validProductTiers = []ProductTier{
	ProductTierStandard,
	ProductTierAutomated,
	ProductTierIntelligent,
	ProductTierLuxury,
}

// String implements fmt.Stringer.
func (t ProductTier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ProductTier.
func (t ProductTier) IsValid() bool {
	for _, candidate := range validProductTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseProductTier converts raw input into a ProductTier.
func ParseProductTier(value string) (ProductTier, error) {
	for _, candidate := range validProductTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product tier %q", value)
}
