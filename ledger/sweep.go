/*
sweep.go - Expiration workflow

PURPOSE:
  A recurring, idempotent sweep over all lots past their expiry. Each
  eligible lot is flipped to expired and its unconsumed remainder is
  removed via an Expired entry, one member-scoped transaction per lot.

IDEMPOTENCE:
  Already-expired lots are excluded by the IsExpired = false predicate,
  so running the sweep twice in a row is a no-op the second time.

EXHAUSTED LOTS:
  A lot fully consumed before its expiry (remaining = 0) is silently
  skipped: no Expired entry is written and IsExpired stays false.
  Exhausted is a terminal state of its own; the remaining > 0 predicate
  keeps such lots out of every future sweep.

FAILURE MODEL:
  One lot failing must not abort the sweep for other lots. Per-lot
  failures are collected in the report. The sweep as a whole fails only
  when it cannot run at all (e.g. the eligible-lot query fails), reported
  as ExpirationError.

CONCURRENCY:
  Safe to run alongside deductions: both sides use the same per-member
  transaction discipline, and each lot is re-read inside its transaction
  so a lot drained to zero by a racing deduction is skipped.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SWEEP REPORT
// =============================================================================

// SweepFailure records one lot the sweep could not process.
type SweepFailure struct {
	LotID    EntryID
	MemberID MemberID
	Reason   string
}

// SweepReport summarizes one expiration sweep.
type SweepReport struct {
	AsOf         time.Time
	Processed    int // lots examined
	ExpiredCount int // lots flipped and written off
	Failures     []SweepFailure
}

// =============================================================================
// RUN EXPIRATION SWEEP
// =============================================================================

// RunExpirationSweep expires every lot with ExpiresAt <= asOf that still has
// unconsumed points. Synchronous from the caller's view; the api scheduler
// drives it on a timer.
func (e *Engine) RunExpirationSweep(ctx context.Context, asOf time.Time) (SweepReport, error) {
	report := SweepReport{AsOf: asOf}

	lots, err := e.Store.ExpirableLots(ctx, asOf)
	if err != nil {
		return report, &ExpirationError{Cause: err}
	}

	for _, lot := range lots {
		report.Processed++
		expired, err := e.expireLot(ctx, lot.ID, lot.MemberID, asOf)
		if err != nil {
			report.Failures = append(report.Failures, SweepFailure{
				LotID:    lot.ID,
				MemberID: lot.MemberID,
				Reason:   err.Error(),
			})
			continue
		}
		if expired {
			report.ExpiredCount++
		}
	}
	return report, nil
}

// expireLot processes a single lot in its own member transaction. Returns
// whether the lot was actually expired (false = skipped: already handled by
// a racing sweep, or drained to zero by a racing deduction).
func (e *Engine) expireLot(ctx context.Context, lotID EntryID, memberID MemberID, asOf time.Time) (bool, error) {
	expired := false
	err := e.Store.WithMemberTx(ctx, memberID, func(s Store) error {
		// Re-read inside the transaction; the snapshot from ExpirableLots
		// may be stale by the time the lock is held.
		lot, err := s.Lot(ctx, lotID)
		if err != nil {
			if errors.Is(err, ErrEntryNotFound) {
				return nil
			}
			return err
		}
		if !lot.Expirable(asOf) || lot.Remaining.IsZero() {
			return nil
		}

		oldBalance, err := balanceIn(ctx, s, memberID)
		if err != nil {
			return err
		}
		newBalance, err := oldBalance.Sub(lot.Remaining)
		if err != nil {
			return err
		}

		if err := s.MarkLotExpired(ctx, lotID, asOf); err != nil {
			return err
		}
		entry, err := NewRemovalEntry(newEntryID(), memberID, lot.Remaining, KindExpired,
			fmt.Sprintf("expired lot %s", lotID), e.now())
		if err != nil {
			return err
		}
		if err := s.InsertEntry(ctx, entry); err != nil {
			return err
		}
		if err := s.AppendAudit(ctx, e.auditFor(entry, AuditExpire, SystemActor, oldBalance, newBalance)); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}
