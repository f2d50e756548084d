/*
amount.go - PointAmount value type

PURPOSE:
  A non-negative point quantity with 2-decimal precision and a bounded
  magnitude. All ledger arithmetic goes through this type so a negative
  or non-finite quantity can never enter the system.

CONSTRUCTION:
  NewPointAmount(float64): rejects NaN/Inf/negative, rounds to 2 decimals
  ParsePointAmount(string): strict - more than 2 fractional digits fails

ARITHMETIC:
  Add fails if the sum exceeds MaxPointValue.
  Sub fails with ErrUnderflow if the result would be negative. Business
  logic must have already established that the subtrahend fits; Sub is the
  invariant guard of last resort, not a balance check.

PRECISION:
  Uses decimal.Decimal to avoid floating-point errors. 100.555 rounds to
  100.56 (half away from zero).

SEE ALSO:
  - entry.go:  Entries store amounts as absolute magnitudes
  - balance.go: Signed aggregation happens at the decimal level
*/
package ledger

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POINT AMOUNT - Non-negative quantity, 2-decimal precision, bounded
// =============================================================================

// MaxPointValue is the largest representable point amount.
const MaxPointValue = "999999.99"

var maxPoints = decimal.RequireFromString(MaxPointValue)

// PointAmount is a validated, non-negative point quantity.
// The zero value is a valid zero amount.
type PointAmount struct {
	d decimal.Decimal
}

// NewPointAmount builds an amount from a float, rounding to 2 decimal places.
func NewPointAmount(v float64) (PointAmount, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return PointAmount{}, fmt.Errorf("%w: not a finite number", ErrInvalidAmount)
	}
	if v < 0 {
		return PointAmount{}, fmt.Errorf("%w: %v is negative", ErrInvalidAmount, v)
	}
	d := decimal.NewFromFloat(v).Round(2)
	if d.GreaterThan(maxPoints) {
		return PointAmount{}, fmt.Errorf("%w: %s exceeds maximum %s", ErrAmountOutOfRange, d, MaxPointValue)
	}
	return PointAmount{d: d}, nil
}

// ParsePointAmount is the strict constructor used when reading amounts from
// external input or storage. It rejects excess precision instead of rounding.
func ParsePointAmount(s string) (PointAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return PointAmount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return PointAmount{}, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d)
	}
	if d.Exponent() < -2 {
		return PointAmount{}, fmt.Errorf("%w: %q", ErrPrecision, s)
	}
	if d.GreaterThan(maxPoints) {
		return PointAmount{}, fmt.Errorf("%w: %s exceeds maximum %s", ErrAmountOutOfRange, d, MaxPointValue)
	}
	return PointAmount{d: d}, nil
}

// MustPointAmount panics on invalid input. Test and fixture use only.
func MustPointAmount(v float64) PointAmount {
	a, err := NewPointAmount(v)
	if err != nil {
		panic(err)
	}
	return a
}

// ZeroPoints is the zero amount.
func ZeroPoints() PointAmount { return PointAmount{} }

// =============================================================================
// ARITHMETIC - Never produces a negative or out-of-range amount
// =============================================================================

// Add returns a+b, failing if the sum exceeds the maximum.
func (a PointAmount) Add(b PointAmount) (PointAmount, error) {
	sum := a.d.Add(b.d)
	if sum.GreaterThan(maxPoints) {
		return PointAmount{}, fmt.Errorf("%w: %s exceeds maximum %s", ErrAmountOutOfRange, sum, MaxPointValue)
	}
	return PointAmount{d: sum}, nil
}

// Sub returns a-b, failing with ErrUnderflow if the result would be negative.
func (a PointAmount) Sub(b PointAmount) (PointAmount, error) {
	diff := a.d.Sub(b.d)
	if diff.IsNegative() {
		return PointAmount{}, fmt.Errorf("%w: %s - %s", ErrUnderflow, a, b)
	}
	return PointAmount{d: diff}, nil
}

// Min returns the smaller of a and b.
func (a PointAmount) Min(b PointAmount) PointAmount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// =============================================================================
// COMPARISON - Total order
// =============================================================================

func (a PointAmount) Cmp(b PointAmount) int          { return a.d.Cmp(b.d) }
func (a PointAmount) Equal(b PointAmount) bool       { return a.d.Equal(b.d) }
func (a PointAmount) LessThan(b PointAmount) bool    { return a.d.LessThan(b.d) }
func (a PointAmount) GreaterThan(b PointAmount) bool { return a.d.GreaterThan(b.d) }
func (a PointAmount) IsZero() bool                   { return a.d.IsZero() }
func (a PointAmount) IsPositive() bool               { return a.d.IsPositive() }

// Decimal exposes the underlying decimal for signed aggregation.
func (a PointAmount) Decimal() decimal.Decimal { return a.d }

// Float64 returns the amount as a float for display purposes.
func (a PointAmount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// String renders with exactly two decimal places.
func (a PointAmount) String() string { return a.d.StringFixed(2) }
