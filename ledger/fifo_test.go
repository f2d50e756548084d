package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/meridian/point-ledger/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func lotAt(id string, amount float64, createdAt time.Time) ledger.Lot {
	expiry := createdAt.AddDate(1, 0, 0)
	e, err := ledger.NewEarnedEntry(ledger.EntryID(id), "m-1",
		ledger.MustPointAmount(amount), "test lot", expiry, createdAt)
	if err != nil {
		panic(err)
	}
	return ledger.Lot{Entry: e, Remaining: e.Amount}
}

// =============================================================================
// CONSUMPTION PLANNING TESTS
// =============================================================================

func TestPlanConsumption_OldestLotFirst(t *testing.T) {
	// GIVEN: Lot A (100 pts, earned January) and lot B (50 pts, earned February)
	// WHEN: Planning a 120-point deduction
	// THEN: A is fully drained, B contributes the remaining 20

	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	// Input order intentionally newest-first; the planner must reorder.
	lots := []ledger.Lot{lotAt("B", 50, feb), lotAt("A", 100, jan)}

	draws, err := ledger.PlanConsumption("m-1", lots, ledger.MustPointAmount(120))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(draws) != 2 {
		t.Fatalf("expected 2 draws, got %d", len(draws))
	}
	if draws[0].LotID != "A" || draws[0].Amount.String() != "100.00" {
		t.Errorf("first draw should drain A fully, got %s for %s", draws[0].Amount, draws[0].LotID)
	}
	if draws[1].LotID != "B" || draws[1].Amount.String() != "20.00" {
		t.Errorf("second draw should take 20 from B, got %s for %s", draws[1].Amount, draws[1].LotID)
	}
}

func TestPlanConsumption_TieBreaksOnID(t *testing.T) {
	// Two lots earned at the same instant consume in ID order for determinism
	at := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	lots := []ledger.Lot{lotAt("b", 10, at), lotAt("a", 10, at)}

	draws, err := ledger.PlanConsumption("m-1", lots, ledger.MustPointAmount(15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draws[0].LotID != "a" {
		t.Errorf("expected lot a first, got %s", draws[0].LotID)
	}
}

func TestPlanConsumption_InsufficientIsAllOrNothing(t *testing.T) {
	// GIVEN: 150 points across two lots
	// WHEN: Planning a 150.01-point deduction
	// THEN: No draws at all; the error carries required/available/deficit

	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	lots := []ledger.Lot{lotAt("A", 100, jan), lotAt("B", 50, jan.AddDate(0, 1, 0))}

	draws, err := ledger.PlanConsumption("m-1", lots, ledger.MustPointAmount(150.01))
	if draws != nil {
		t.Errorf("expected no draws, got %d", len(draws))
	}

	var insufficient *ledger.InsufficientPointsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientPointsError, got %v", err)
	}
	if insufficient.Required.String() != "150.01" {
		t.Errorf("required: expected 150.01, got %s", insufficient.Required)
	}
	if insufficient.Available.String() != "150.00" {
		t.Errorf("available: expected 150.00, got %s", insufficient.Available)
	}
	if insufficient.Deficit.String() != "0.01" {
		t.Errorf("deficit: expected 0.01, got %s", insufficient.Deficit)
	}
	if !errors.Is(err, ledger.ErrInsufficientPoints) {
		t.Error("should unwrap to ErrInsufficientPoints")
	}
}

func TestPlanConsumption_ExactDrain(t *testing.T) {
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	lots := []ledger.Lot{lotAt("A", 100, jan)}

	draws, err := ledger.PlanConsumption("m-1", lots, ledger.MustPointAmount(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(draws) != 1 || draws[0].Amount.String() != "100.00" {
		t.Fatalf("expected single full draw, got %v", draws)
	}
}

func TestPlanConsumption_NoLots(t *testing.T) {
	_, err := ledger.PlanConsumption("m-1", nil, ledger.MustPointAmount(1))
	if !errors.Is(err, ledger.ErrInsufficientPoints) {
		t.Errorf("expected ErrInsufficientPoints, got %v", err)
	}
}
