// Package money converts between stored minor units and decimal amounts.
package money

import "github.com/shopspring/decimal"

// Places is the number of fractional digits in the storefront currency.
const Places = 2

// FromCents converts integer minor units into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// Truncate discards everything past the second decimal place toward zero.
// It never rounds up.
func Truncate(amount decimal.Decimal) decimal.Decimal {
	return amount.Truncate(Places)
}

// SumCents adds minor-unit amounts and returns the truncated decimal total.
func SumCents(values ...int64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(FromCents(v))
	}
	return Truncate(total)
}

// String renders an amount with exactly two decimals.
func String(amount decimal.Decimal) string {
	return amount.StringFixed(Places)
}
