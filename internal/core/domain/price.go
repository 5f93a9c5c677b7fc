package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FinalPrice applies a percentage discount to price. A nil or non-positive
// discount leaves the price unchanged. The result is rounded half-up to cents.
func FinalPrice(price decimal.Decimal, discount *int) decimal.Decimal {
	if discount == nil || *discount <= 0 {
		return price
	}
	cut := price.Mul(decimal.NewFromInt(int64(*discount))).Div(hundred)
	return price.Sub(cut).Round(2)
}
