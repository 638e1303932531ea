// Package pricing holds the settlement money rules shared by the cart
// aggregator and the order settlement engine.
package pricing

import "github.com/shopspring/decimal"

var (
	// TaxRate is applied to the order subtotal.
	TaxRate = decimal.RequireFromString("0.08")
	// FlatShippingFee is charged below the free shipping threshold.
	FlatShippingFee = decimal.RequireFromString("10.00")
	// FreeShippingThreshold is the subtotal at which shipping becomes free.
	FreeShippingThreshold = decimal.NewFromInt(100)
	// RewardRate converts an order total into earned points.
	RewardRate = decimal.RequireFromString("0.25")
	// RewardMinimumTotal is the smallest order total that earns points.
	RewardMinimumTotal = decimal.NewFromInt(100)
)

// Shipping returns the shipping charge for a subtotal.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

// FreeShipping reports whether the subtotal qualifies for free shipping.
func FreeShipping(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThanOrEqual(FreeShippingThreshold)
}

// Tax returns the tax charge for a subtotal, rounded to cents.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}

// RewardPoints returns the points earned for an order total. Totals under
// the minimum earn nothing; otherwise the reward is floor(total × rate).
func RewardPoints(total decimal.Decimal) int {
	if total.LessThan(RewardMinimumTotal) {
		return 0
	}
	return int(total.Mul(RewardRate).Floor().IntPart())
}

// LineDiscount returns percent of the line total, rounded to cents.
func LineDiscount(lineTotal decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return lineTotal.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
}
