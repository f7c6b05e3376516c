// Package money holds the fixed-point arithmetic used for every price in the
// system. Values are shopspring decimals; floats never touch a price.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits every computed price is rounded to.
const Scale int32 = 2

// Money is a monetary amount.
type Money = decimal.Decimal

// Parse reads a monetary amount from its decimal string form.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return d, nil
}

// Must parses s and panics on error. Use only for constants.
func Must(s string) Money {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Round rounds to Scale places, halves away from zero (HALF_UP).
func Round(m Money) Money {
	return m.Round(Scale)
}

// MulRound multiplies and rounds the product with Round.
func MulRound(m, factor Money) Money {
	return Round(m.Mul(factor))
}

// IsPositive reports whether m > 0.
func IsPositive(m Money) bool {
	return m.Sign() > 0
}
