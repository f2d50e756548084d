/*
engine.go - Ledger operations and the atomic write path

PURPOSE:
  The Engine is the single entry point for every balance-affecting
  operation: earn, deduct, exchange, plus balance and history reads.
  Controllers and the expiration scheduler call into it; nothing else
  writes to the ledger.

WRITE PATH (cross-cutting contract):
  Every mutation runs inside one member-scoped store transaction:
  1. Load the member's state (entries / open lots)
  2. Validate and compute (balance fold, FIFO plan)
  3. Insert exactly one new entry and apply lot updates
  4. Append an audit record (actor, action, before/after balance,
     correlation ID)
  All of it commits together or not at all. A failed commit leaves no
  audit record and no partial ledger state.

CONCURRENCY:
  WithMemberTx serializes concurrent mutations for the same member, so
  two racing deductions can never both succeed against a balance that
  covers only one of them. Lock/commit conflicts surface as ErrConflict;
  callers may retry safely.

SEE ALSO:
  - fifo.go:   Consumption planning
  - sweep.go:  The expiration workflow
  - store.go:  Transaction contract
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine executes ledger operations against a transactional store.
type Engine struct {
	Store TxStore

	// Clock is injectable for tests. Defaults to time.Now.
	Clock func() time.Time
}

// NewEngine creates an engine with the wall clock.
func NewEngine(store TxStore) *Engine {
	return &Engine{Store: store, Clock: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

// =============================================================================
// INBOUND OPERATIONS
// =============================================================================

// Earn credits a new lot of points to the member, expiring at expiresAt.
func (e *Engine) Earn(ctx context.Context, memberID MemberID, amount PointAmount, description string, expiresAt time.Time, actor Actor) (Entry, error) {
	if err := validateAmount(amount); err != nil {
		return Entry{}, err
	}
	if err := validateDescription(description); err != nil {
		return Entry{}, err
	}
	now := e.now()
	if !expiresAt.After(now) {
		return Entry{}, fmt.Errorf("%w: %s is not in the future", ErrInvalidExpiration, expiresAt.Format(time.RFC3339))
	}

	var created Entry
	err := e.Store.WithMemberTx(ctx, memberID, func(s Store) error {
		oldBalance, err := balanceIn(ctx, s, memberID)
		if err != nil {
			return err
		}
		newBalance, err := oldBalance.Add(amount)
		if err != nil {
			return err
		}

		entry, err := NewEarnedEntry(newEntryID(), memberID, amount, description, expiresAt.UTC(), now)
		if err != nil {
			return err
		}
		if err := s.InsertEntry(ctx, entry); err != nil {
			return err
		}
		if err := s.AppendAudit(ctx, e.auditFor(entry, AuditEarn, actor, oldBalance, newBalance)); err != nil {
			return err
		}
		created = entry
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return created, nil
}

// Deduct spends points, consuming the member's oldest open lots first.
func (e *Engine) Deduct(ctx context.Context, memberID MemberID, amount PointAmount, description string, actor Actor) (Entry, error) {
	return e.consume(ctx, memberID, amount, description, KindDeducted, AuditDeduct, actor)
}

// Exchange spends points against a privilege redemption. Same semantics as
// Deduct; only the recorded kind differs.
func (e *Engine) Exchange(ctx context.Context, memberID MemberID, amount PointAmount, description string, actor Actor) (Entry, error) {
	return e.consume(ctx, memberID, amount, description, KindExchanged, AuditExchange, actor)
}

// GetBalance returns the member's available balance.
func (e *Engine) GetBalance(ctx context.Context, memberID MemberID) (PointAmount, error) {
	calc := &BalanceCalculator{Store: e.Store}
	return calc.Balance(ctx, memberID)
}

// GetHistory returns a page of the member's entries, newest first.
func (e *Engine) GetHistory(ctx context.Context, memberID MemberID, page Pagination) ([]Entry, error) {
	return e.Store.History(ctx, memberID, page.Normalize())
}

// =============================================================================
// CONSUMPTION - Shared by Deduct and Exchange
// =============================================================================

func (e *Engine) consume(ctx context.Context, memberID MemberID, amount PointAmount, description string, kind EntryKind, action AuditAction, actor Actor) (Entry, error) {
	if err := validateAmount(amount); err != nil {
		return Entry{}, err
	}
	if err := validateDescription(description); err != nil {
		return Entry{}, err
	}

	var created Entry
	err := e.Store.WithMemberTx(ctx, memberID, func(s Store) error {
		oldBalance, err := balanceIn(ctx, s, memberID)
		if err != nil {
			return err
		}

		lots, err := s.OpenLots(ctx, memberID)
		if err != nil {
			return err
		}
		draws, err := PlanConsumption(memberID, lots, amount)
		if err != nil {
			return err
		}
		for _, draw := range draws {
			if err := s.DebitLot(ctx, draw.LotID, draw.Amount); err != nil {
				return err
			}
		}

		// One entry for the total; per-lot splits are internal accounting.
		entry, err := NewRemovalEntry(newEntryID(), memberID, amount, kind, description, e.now())
		if err != nil {
			return err
		}
		if err := s.InsertEntry(ctx, entry); err != nil {
			return err
		}

		newBalance, err := oldBalance.Sub(amount)
		if err != nil {
			return err
		}
		if err := s.AppendAudit(ctx, e.auditFor(entry, action, actor, oldBalance, newBalance)); err != nil {
			return err
		}
		created = entry
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return created, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func balanceIn(ctx context.Context, s Store, memberID MemberID) (PointAmount, error) {
	entries, err := s.EntriesByMember(ctx, memberID)
	if err != nil {
		return PointAmount{}, err
	}
	return BalanceOf(entries)
}

func (e *Engine) auditFor(entry Entry, action AuditAction, actor Actor, oldBalance, newBalance PointAmount) AuditRecord {
	return AuditRecord{
		ID:            uuid.NewString(),
		EntityType:    "LedgerEntry",
		EntityID:      entry.ID,
		Action:        action,
		ActorType:     actor.Type,
		ActorID:       actor.ID,
		MemberID:      entry.MemberID,
		OldBalance:    oldBalance,
		NewBalance:    newBalance,
		CorrelationID: uuid.NewString(),
		Metadata: map[string]string{
			"amount":      entry.Amount.String(),
			"description": entry.Description,
		},
		CreatedAt: e.now(),
	}
}

func newEntryID() EntryID {
	return EntryID(uuid.NewString())
}

func validateAmount(a PointAmount) error {
	if !a.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return nil
}

func validateDescription(d string) error {
	if n := len(d); n < descriptionMinLen || n > descriptionMaxLen {
		return fmt.Errorf("%w: length must be between %d and %d characters",
			ErrInvalidDescription, descriptionMinLen, descriptionMaxLen)
	}
	return nil
}
