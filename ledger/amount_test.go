package ledger_test

import (
	"errors"
	"math"
	"testing"

	"github.com/meridian/point-ledger/ledger"
)

// =============================================================================
// CONSTRUCTION TESTS
// =============================================================================

func TestNewPointAmount_RoundsToTwoDecimals(t *testing.T) {
	// GIVEN: A float with three decimal places
	// WHEN: Building a PointAmount
	// THEN: It rounds half away from zero to two decimals

	a, err := ledger.NewPointAmount(100.555)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.String() != "100.56" {
		t.Errorf("expected 100.56, got %s", a)
	}
}

func TestNewPointAmount_RejectsNegative(t *testing.T) {
	_, err := ledger.NewPointAmount(-1)
	if !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestNewPointAmount_RejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := ledger.NewPointAmount(v); !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount for %v, got %v", v, err)
		}
	}
}

func TestNewPointAmount_RejectsAboveMaximum(t *testing.T) {
	_, err := ledger.NewPointAmount(1000000)
	if !errors.Is(err, ledger.ErrAmountOutOfRange) {
		t.Errorf("expected ErrAmountOutOfRange, got %v", err)
	}

	// The maximum itself is fine
	if _, err := ledger.NewPointAmount(999999.99); err != nil {
		t.Errorf("maximum should be accepted, got %v", err)
	}
}

func TestParsePointAmount_StrictPrecision(t *testing.T) {
	// Parsing never rounds; excess precision is an error
	if _, err := ledger.ParsePointAmount("100.555"); !errors.Is(err, ledger.ErrPrecision) {
		t.Errorf("expected ErrPrecision, got %v", err)
	}

	a, err := ledger.ParsePointAmount("100.55")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.String() != "100.55" {
		t.Errorf("expected 100.55, got %s", a)
	}
}

func TestParsePointAmount_RejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "-5", "1e10"} {
		if _, err := ledger.ParsePointAmount(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

// =============================================================================
// ARITHMETIC TESTS
// =============================================================================

func TestPointAmount_SubUnderflow(t *testing.T) {
	// GIVEN: 10 points
	// WHEN: Subtracting 10.01
	// THEN: ErrUnderflow, never a negative amount

	a := ledger.MustPointAmount(10)
	b := ledger.MustPointAmount(10.01)

	if _, err := a.Sub(b); !errors.Is(err, ledger.ErrUnderflow) {
		t.Errorf("expected ErrUnderflow, got %v", err)
	}

	// Exact subtraction reaches zero cleanly
	z, err := a.Sub(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !z.IsZero() {
		t.Errorf("expected zero, got %s", z)
	}
}

func TestPointAmount_AddOverflow(t *testing.T) {
	a := ledger.MustPointAmount(999999.99)
	b := ledger.MustPointAmount(0.01)

	if _, err := a.Add(b); !errors.Is(err, ledger.ErrAmountOutOfRange) {
		t.Errorf("expected ErrAmountOutOfRange, got %v", err)
	}
}

func TestPointAmount_NoFloatDrift(t *testing.T) {
	// 0.1 + 0.2 is exactly 0.3 in decimal arithmetic
	a := ledger.MustPointAmount(0.1)
	b := ledger.MustPointAmount(0.2)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.String() != "0.30" {
		t.Errorf("expected 0.30, got %s", sum)
	}
}

func TestPointAmount_Min(t *testing.T) {
	a := ledger.MustPointAmount(5)
	b := ledger.MustPointAmount(3)

	if got := a.Min(b); !got.Equal(b) {
		t.Errorf("expected 3.00, got %s", got)
	}
	if got := b.Min(a); !got.Equal(b) {
		t.Errorf("expected 3.00, got %s", got)
	}
}
