// Package core holds the domain model and the pure reconciliation
// arithmetic: money/percentage conversion, share allocation and debt
// derivation. Nothing in this package touches storage or transport.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// centTolerance is one rounding unit: the largest error a single
// percentage-to-amount conversion can introduce.
var centTolerance = decimal.New(1, -2) // 0.01

// ProportionalAmount converts a percentage of a total into a concrete
// amount, rounded to 2 decimal places half-up. This is the only point
// where fractional cents are resolved; every caller that turns a
// percentage into money must go through it or share sums drift from the
// expense total.
func ProportionalAmount(total, percentage decimal.Decimal) decimal.Decimal {
	return total.Mul(percentage).Div(hundred).Round(2)
}

// ImpliedPercentage is the inverse of ProportionalAmount, used when a
// caller supplies absolute amounts and a percentage must still be
// recorded for later re-derivation. Returns 0 when total is 0; that is a
// division guard, not a real percentage.
func ImpliedPercentage(amount, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(total).Round(2)
}

// RoundingTolerance is the accepted residual between an expense amount
// and the sum of its normalized shares: one cent per share beyond the
// first, since each conversion rounds independently.
func RoundingTolerance(shareCount int) decimal.Decimal {
	if shareCount < 2 {
		return decimal.Zero
	}
	return centTolerance.Mul(decimal.NewFromInt(int64(shareCount - 1)))
}

// WithinTolerance reports whether two amounts agree within tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// ParseAmount parses a decimal amount from user input. It accepts both
// dot and comma separators and rejects negative values.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
