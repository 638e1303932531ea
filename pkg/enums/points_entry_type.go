package enums

import "fmt"

// PointsEntryType labels the origin of a points ledger entry.
type PointsEntryType string

const (
	PointsEntryPurchaseReward   PointsEntryType = "purchase_reward"
	PointsEntryPurchaseDiscount PointsEntryType = "purchase_discount"
	PointsEntryBonus            PointsEntryType = "bonus"
	PointsEntryReferral         PointsEntryType = "referral"
	PointsEntryRedemption       PointsEntryType = "redemption"
	PointsEntryExpired          PointsEntryType = "expired"
	PointsEntryGameReward       PointsEntryType = "game_reward"
	PointsEntryManualAdjustment PointsEntryType = "manual_adjustment"
)

var validPointsEntryTypes = []PointsEntryType{
	PointsEntryPurchaseReward,
	PointsEntryPurchaseDiscount,
	PointsEntryBonus,
	PointsEntryReferral,
	PointsEntryRedemption,
	PointsEntryExpired,
	PointsEntryGameReward,
	PointsEntryManualAdjustment,
}

// String implements fmt.Stringer.
func (t PointsEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known PointsEntryType.
func (t PointsEntryType) IsValid() bool {
	for _, candidate := range validPointsEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePointsEntryType converts raw input into a PointsEntryType.
func ParsePointsEntryType(value string) (PointsEntryType, error) {
	for _, candidate := range validPointsEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid points entry type %q", value)
}
