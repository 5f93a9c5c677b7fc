package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func intPtr(v int) *int { return &v }

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount *int
		want     string
	}{
		{name: "nil discount", price: "100.00", discount: nil, want: "100.00"},
		{name: "zero discount", price: "42.50", discount: intPtr(0), want: "42.50"},
		{name: "negative discount", price: "42.50", discount: intPtr(-5), want: "42.50"},
		{name: "ten percent", price: "100.00", discount: intPtr(10), want: "90.00"},
		{name: "rounds half up", price: "19.99", discount: intPtr(15), want: "16.99"},
		{name: "full discount", price: "12.34", discount: intPtr(100), want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinalPrice(decimal.RequireFromString(tt.price), tt.discount)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestFinalPrice_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(0, 10_000_000).Draw(t, "cents")
		price := decimal.New(cents, -2)

		if rapid.Bool().Draw(t, "nil") {
			if !FinalPrice(price, nil).Equal(price) {
				t.Fatalf("nil discount changed price %s", price)
			}
			return
		}

		d := rapid.IntRange(-10, 100).Draw(t, "discount")
		got := FinalPrice(price, &d)
		if d <= 0 {
			if !got.Equal(price) {
				t.Fatalf("discount %d changed price %s to %s", d, price, got)
			}
			return
		}
		want := price.Sub(price.Mul(decimal.NewFromInt(int64(d))).Div(decimal.NewFromInt(100))).Round(2)
		if !got.Equal(want) {
			t.Fatalf("price %s discount %d: got %s want %s", price, d, got, want)
		}
		if got.GreaterThan(price) || got.IsNegative() {
			t.Fatalf("final price %s out of range for price %s", got, price)
		}
	})
}
