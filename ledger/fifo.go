/*
fifo.go - FIFO lot consumption planning

PURPOSE:
  Given a requested deduction amount and the member's open lots, decide
  how much to draw from each lot: oldest first, never going negative.
  Planning is pure; the engine applies the plan inside a transaction.

ALGORITHM:
  1. Order lots by CreatedAt ascending; ties break on ID ascending for
     determinism.
  2. If the request exceeds the total remaining across lots, fail with
     InsufficientPointsError - all-or-nothing, no partial application.
  3. Walk lots, drawing min(lot.Remaining, stillNeeded) from each until
     the request is covered.

SEE ALSO:
  - engine.go: Applies the plan (DebitLot per draw + one removal entry)
*/
package ledger

import (
	"sort"
)

// =============================================================================
// CONSUMPTION PLAN - Per-lot draws satisfying a deduction
// =============================================================================

// LotDraw is one lot's contribution to a deduction.
type LotDraw struct {
	LotID  EntryID
	Amount PointAmount
}

// PlanConsumption selects the per-lot draws for a deduction of `requested`
// against the given open lots. The input order does not matter; lots are
// ordered here by earn time (ID as tie-break).
//
// Fails with *InsufficientPointsError if the lots cannot cover the request.
// No draw is ever partial on the request side: either the full amount is
// planned or nothing is.
func PlanConsumption(memberID MemberID, lots []Lot, requested PointAmount) ([]LotDraw, error) {
	available := AvailableOf(lots)
	if requested.GreaterThan(available) {
		deficit, err := requested.Sub(available)
		if err != nil {
			return nil, err
		}
		return nil, &InsufficientPointsError{
			MemberID:  memberID,
			Required:  requested,
			Available: available,
			Deficit:   deficit,
		}
	}

	ordered := make([]Lot, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var draws []LotDraw
	stillNeeded := requested
	for _, lot := range ordered {
		if stillNeeded.IsZero() {
			break
		}
		draw := lot.Remaining.Min(stillNeeded)
		if draw.IsZero() {
			continue
		}
		draws = append(draws, LotDraw{LotID: lot.ID, Amount: draw})

		var err error
		stillNeeded, err = stillNeeded.Sub(draw)
		if err != nil {
			return nil, err
		}
	}

	// Covered availability above, so this cannot trip unless a lot's
	// Remaining changed underneath us mid-plan.
	if !stillNeeded.IsZero() {
		return nil, invariantf("consumption plan short by %s for member %s", stillNeeded, memberID)
	}
	return draws, nil
}
