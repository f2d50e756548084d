/*
balance.go - Balance derivation

PURPOSE:
  Computes a member's available balance. There is no stored balance
  counter anywhere in the system: balance is always a fold over the
  member's immutable entries.

KEY INSIGHT:
  An expired lot contributes nothing net: its Earned entry (+amount), the
  deductions drawn from it, and its Expired entry (-remaining) sum to
  zero. So the signed fold over ALL entries equals the sum of Remaining
  over active lots. Both formulations are computed here; they must agree,
  and a disagreement means the store's remaining projection drifted.

SEE ALSO:
  - entry.go:  Signed() derivation
  - fifo.go:   Consumption keeps the lot projection in step with the log
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BALANCE CALCULATOR - Pure fold over the entry log
// =============================================================================

// BalanceCalculator derives balances from a Store.
type BalanceCalculator struct {
	Store Store
}

// Balance returns the member's available balance: the signed sum over the
// member's entries. A member with no entries has a zero balance.
func (bc *BalanceCalculator) Balance(ctx context.Context, memberID MemberID) (PointAmount, error) {
	entries, err := bc.Store.EntriesByMember(ctx, memberID)
	if err != nil {
		return PointAmount{}, err
	}
	return BalanceOf(entries)
}

// BalanceOf folds the signed amounts of the given entries. A negative result
// means the ledger is corrupt - the engine never commits a negative prefix.
func BalanceOf(entries []Entry) (PointAmount, error) {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Signed())
	}
	if sum.IsNegative() {
		return PointAmount{}, invariantf("negative balance %s over %d entries", sum, len(entries))
	}
	return PointAmount{d: sum}, nil
}

// AvailableOf sums the remaining amounts of the given lots. Used by the
// consumption path, where eligibility (open, not expired) has already been
// applied by the store query.
func AvailableOf(lots []Lot) PointAmount {
	sum := decimal.Zero
	for _, lot := range lots {
		sum = sum.Add(lot.Remaining.d)
	}
	return PointAmount{d: sum}
}
