/*
Package ledger provides the point ledger engine for the membership backend.

PURPOSE:
  This package contains the data model and algorithms for an append-only
  point ledger: earning lots with expiry dates, FIFO consumption of lots on
  deduction/exchange, scheduled expiration of unused lots, and balance
  derivation - all under a per-member transactional consistency contract.

KEY CONCEPTS IN THIS FILE (entry.go):
  - Entry: One immutable fact about a member's balance (earn, deduction,
    expiration, exchange consumption)
  - EntryKind: Discriminates the four entry types
  - Lot: An Earned entry together with its unconsumed remaining amount

DESIGN PRINCIPLES:
  1. Immutability: Entries are never updated except the one-way IsExpired
     flip, and never deleted
  2. Derived sign: Amounts are stored as absolute magnitudes; the sign is
     computed from the kind, never persisted
  3. Precision: decimal.Decimal via PointAmount, no floating-point drift
  4. Auditability: Every mutation leaves an audit record in the same commit

USAGE:
  entry, err := ledger.NewEarnedEntry(id, memberID, amount, "signup bonus",
      expiresAt, now)

SEE ALSO:
  - engine.go:  Operations that create entries
  - balance.go: Signed aggregation over entries
  - store.go:   Persistence contract
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type EntryID string

// =============================================================================
// ENTRY KIND - Discriminates the four entry types
// =============================================================================

type EntryKind string

const (
	KindEarned    EntryKind = "earned"    // New lot of points with its own expiry
	KindDeducted  EntryKind = "deducted"  // Points spent by the member or removed by an admin
	KindExpired   EntryKind = "expired"   // Unconsumed remainder of a lot past its expiry
	KindExchanged EntryKind = "exchanged" // Deduction tied to a privilege redemption
)

// ValidKind reports whether k is one of the four entry kinds.
func ValidKind(k EntryKind) bool {
	switch k {
	case KindEarned, KindDeducted, KindExpired, KindExchanged:
		return true
	}
	return false
}

// =============================================================================
// ENTRY - One immutable fact about a member's balance
// =============================================================================

// Entry is a single ledger fact. Immutable once created, except the one-way
// IsExpired flip performed by the expiration workflow.
//
// INVARIANTS (enforced at construction and on MarkExpired):
//  1. Kind == KindEarned  <=>  ExpiresAt is set
//  2. ExpiresAt, when set, is strictly after CreatedAt
//  3. Amount is an absolute magnitude, never negative
//  4. Only an Earned, not-yet-expired entry whose expiry has passed may be
//     marked expired, and only once
type Entry struct {
	ID          EntryID
	MemberID    MemberID
	Amount      PointAmount
	Kind        EntryKind
	Description string
	ExpiresAt   *time.Time // set iff Kind == KindEarned
	IsExpired   bool
	CreatedAt   time.Time
}

const (
	descriptionMinLen = 1
	descriptionMaxLen = 500
)

// NewEarnedEntry builds an Earned entry (a lot). The expiry must be strictly
// after the creation time.
func NewEarnedEntry(id EntryID, memberID MemberID, amount PointAmount, description string, expiresAt, createdAt time.Time) (Entry, error) {
	e := Entry{
		ID:          id,
		MemberID:    memberID,
		Amount:      amount,
		Kind:        KindEarned,
		Description: description,
		ExpiresAt:   &expiresAt,
		CreatedAt:   createdAt,
	}
	if err := e.validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// NewRemovalEntry builds a Deducted, Exchanged, or Expired entry.
// These kinds never carry an expiry of their own.
func NewRemovalEntry(id EntryID, memberID MemberID, amount PointAmount, kind EntryKind, description string, createdAt time.Time) (Entry, error) {
	if kind == KindEarned {
		return Entry{}, invariantf("removal entry cannot have kind %q", kind)
	}
	e := Entry{
		ID:          id,
		MemberID:    memberID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		CreatedAt:   createdAt,
	}
	if err := e.validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// validate enforces the structural invariants. A failure here is a bug in
// the caller, not a runtime condition, so everything maps to InvariantError.
func (e Entry) validate() error {
	if !ValidKind(e.Kind) {
		return invariantf("unknown entry kind %q", e.Kind)
	}
	if (e.Kind == KindEarned) != (e.ExpiresAt != nil) {
		return invariantf("kind %q and expiry presence disagree", e.Kind)
	}
	if e.ExpiresAt != nil && !e.ExpiresAt.After(e.CreatedAt) {
		return invariantf("expiry %s is not after creation %s", e.ExpiresAt, e.CreatedAt)
	}
	if n := len(e.Description); n < descriptionMinLen || n > descriptionMaxLen {
		return invariantf("description length %d outside [%d, %d]", n, descriptionMinLen, descriptionMaxLen)
	}
	return nil
}

// Signed is +Amount for Earned and -Amount for all removal kinds.
// Used only for balance aggregation; the sign is never persisted.
func (e Entry) Signed() decimal.Decimal {
	if e.Kind == KindEarned {
		return e.Amount.d
	}
	return e.Amount.d.Neg()
}

// Expirable reports whether the lot is past its expiry and not yet flagged.
func (e Entry) Expirable(asOf time.Time) bool {
	return e.Kind == KindEarned && !e.IsExpired &&
		e.ExpiresAt != nil && !e.ExpiresAt.After(asOf)
}

// MarkExpired flips the one-way IsExpired flag. Calling it on a non-Earned
// entry, on an already-expired lot, or before the expiry has passed is a
// programming error.
func (e *Entry) MarkExpired(asOf time.Time) error {
	if e.Kind != KindEarned {
		return invariantf("cannot expire entry of kind %q", e.Kind)
	}
	if e.IsExpired {
		return invariantf("lot %s is already expired", e.ID)
	}
	if e.ExpiresAt == nil || e.ExpiresAt.After(asOf) {
		return invariantf("lot %s has not reached its expiry", e.ID)
	}
	e.IsExpired = true
	return nil
}

// =============================================================================
// LOT - An Earned entry with its unconsumed remainder
// =============================================================================

// Lot pairs an Earned entry with the running amount not yet consumed from it.
// Remaining is a materialized projection maintained transactionally by the
// store; it is never a second source of truth for the balance.
type Lot struct {
	Entry
	Remaining PointAmount
}
