package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/meridian/point-ledger/ledger"
)

// =============================================================================
// ENTRY INVARIANT TESTS
// =============================================================================

func TestNewEarnedEntry_ExpiryMustFollowCreation(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	// Expiry equal to creation is invalid
	_, err := ledger.NewEarnedEntry("e-1", "m-1", ledger.MustPointAmount(10), "bonus", now, now)
	if !errors.Is(err, ledger.ErrInvariant) {
		t.Errorf("expected ErrInvariant, got %v", err)
	}

	// Expiry after creation is fine
	if _, err := ledger.NewEarnedEntry("e-1", "m-1", ledger.MustPointAmount(10), "bonus", now.Add(time.Hour), now); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewRemovalEntry_RejectsEarnedKind(t *testing.T) {
	now := time.Now().UTC()
	_, err := ledger.NewRemovalEntry("e-1", "m-1", ledger.MustPointAmount(10), ledger.KindEarned, "oops", now)
	if !errors.Is(err, ledger.ErrInvariant) {
		t.Errorf("expected ErrInvariant, got %v", err)
	}
}

func TestEntry_MarkExpired_OneWayAndGuarded(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.AddDate(1, 0, 0)

	e, err := ledger.NewEarnedEntry("e-1", "m-1", ledger.MustPointAmount(10), "bonus", expiry, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Before expiry: refused
	if err := e.MarkExpired(now.Add(time.Hour)); !errors.Is(err, ledger.ErrInvariant) {
		t.Errorf("expected ErrInvariant before expiry, got %v", err)
	}

	// At expiry: allowed
	if err := e.MarkExpired(expiry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.IsExpired {
		t.Error("IsExpired should be set")
	}

	// Twice: refused
	if err := e.MarkExpired(expiry); !errors.Is(err, ledger.ErrInvariant) {
		t.Errorf("expected ErrInvariant on double expire, got %v", err)
	}

	// Removal entries can never expire
	d, err := ledger.NewRemovalEntry("e-2", "m-1", ledger.MustPointAmount(5), ledger.KindDeducted, "spend", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.MarkExpired(expiry); !errors.Is(err, ledger.ErrInvariant) {
		t.Errorf("expected ErrInvariant for removal entry, got %v", err)
	}
}

func TestEntry_SignedFollowsKind(t *testing.T) {
	now := time.Now().UTC()
	amount := ledger.MustPointAmount(10)

	earned, _ := ledger.NewEarnedEntry("e-1", "m-1", amount, "bonus", now.Add(time.Hour), now)
	if earned.Signed().Sign() != 1 {
		t.Error("earned entries contribute positively")
	}

	for _, kind := range []ledger.EntryKind{ledger.KindDeducted, ledger.KindExpired, ledger.KindExchanged} {
		e, err := ledger.NewRemovalEntry("e-2", "m-1", amount, kind, "removal", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Signed().Sign() != -1 {
			t.Errorf("%s entries contribute negatively", kind)
		}
	}
}

// =============================================================================
// BALANCE FOLD TESTS
// =============================================================================

func TestBalanceOf_ExpiredLotNetsToZero(t *testing.T) {
	// An expired lot contributes +amount and -remaining via its Expired
	// entry, so after full expiry the pair nets to zero
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	lot, _ := ledger.NewEarnedEntry("e-1", "m-1", ledger.MustPointAmount(100), "bonus", now.Add(time.Hour), now)
	lot.IsExpired = true
	writeOff, _ := ledger.NewRemovalEntry("e-2", "m-1", ledger.MustPointAmount(100), ledger.KindExpired, "expired lot e-1", now.Add(2*time.Hour))

	balance, err := ledger.BalanceOf([]ledger.Entry{lot, writeOff})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("expected zero balance, got %s", balance)
	}
}

func TestBalanceOf_NegativeFoldIsInvariantViolation(t *testing.T) {
	now := time.Now().UTC()
	over, _ := ledger.NewRemovalEntry("e-1", "m-1", ledger.MustPointAmount(5), ledger.KindDeducted, "orphan removal", now)

	_, err := ledger.BalanceOf([]ledger.Entry{over})
	if !errors.Is(err, ledger.ErrInvariant) {
		t.Errorf("expected ErrInvariant, got %v", err)
	}
}
