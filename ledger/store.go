/*
store.go - Persistence interface for entries, lots, and audit records

PURPOSE:
  Defines the interface between the ledger engine and the database. Any
  transactional relational store suffices; implementations exist for
  SQLite (store/sqlite) and in-memory (ledger/store).

APPEND-ONLY CONTRACT:
  Entries are inserted, never updated or deleted. The only mutations the
  interface allows are:
  - DebitLot:       decrement a lot's remaining counter (FIFO consumption)
  - MarkLotExpired: one-way IsExpired flip (expiration workflow)
  Both are projections over the entry log, not edits of history.

TRANSACTIONS:
  Every balance-affecting operation runs inside WithMemberTx, which
  serializes concurrent mutations to the same member's lots. Either the
  entry insert, the lot updates, and the audit record all commit, or none
  do. A store that cannot acquire its lock in bounded time returns
  ErrConflict (retryable).

SEE ALSO:
  - engine.go:           The only caller of the write path
  - store/sqlite:        Production implementation
  - ledger/store/memory: In-memory implementation for tests
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Entry and lot persistence (append-only)
// =============================================================================

// Store handles persistence of ledger entries and per-lot remaining state.
// Corrections happen via new entries, never via edits.
type Store interface {
	// InsertEntry persists a new entry. The entry log is append-only.
	InsertEntry(ctx context.Context, e Entry) error

	// Entry returns a single entry by ID.
	Entry(ctx context.Context, id EntryID) (Entry, error)

	// EntriesByMember returns all of a member's entries ordered by
	// CreatedAt ascending, ID ascending. Read-only.
	EntriesByMember(ctx context.Context, memberID MemberID) ([]Entry, error)

	// History returns a page of a member's entries, newest first.
	History(ctx context.Context, memberID MemberID, page Pagination) ([]Entry, error)

	// OpenLots returns the member's Earned lots with IsExpired = false and
	// Remaining > 0, ordered by CreatedAt ascending, ID ascending.
	OpenLots(ctx context.Context, memberID MemberID) ([]Lot, error)

	// Lot returns a single lot (an Earned entry plus its remaining amount).
	Lot(ctx context.Context, id EntryID) (Lot, error)

	// ExpirableLots returns every lot with ExpiresAt <= asOf,
	// IsExpired = false, and Remaining > 0, across all members.
	ExpirableLots(ctx context.Context, asOf time.Time) ([]Lot, error)

	// DebitLot decrements a lot's remaining counter. Fails with ErrUnderflow
	// if the decrement exceeds the remaining amount.
	DebitLot(ctx context.Context, id EntryID, amount PointAmount) error

	// MarkLotExpired performs the one-way IsExpired flip.
	MarkLotExpired(ctx context.Context, id EntryID, asOf time.Time) error

	// AppendAudit records an audit entry. Called within the same commit
	// boundary as the ledger write it describes.
	AppendAudit(ctx context.Context, rec AuditRecord) error
}

// TxStore wraps Store with member-scoped transaction support.
type TxStore interface {
	Store

	// WithMemberTx executes fn within a transaction that serializes
	// concurrent mutations to memberID's entries and lots.
	// If fn returns an error, the transaction is rolled back.
	// A lock that cannot be acquired in bounded time yields ErrConflict.
	WithMemberTx(ctx context.Context, memberID MemberID, fn func(Store) error) error
}

// =============================================================================
// PAGINATION
// =============================================================================

// Pagination selects a page of history. Page is 1-based.
type Pagination struct {
	Page    int
	PerPage int
}

const defaultPerPage = 50

// Normalize clamps the pagination to sane values.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 200 {
		p.PerPage = defaultPerPage
	}
	return p
}

// Offset returns the row offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// =============================================================================
// AUDIT LOG - Who changed what, recorded with every commit
// =============================================================================

// Actor identifies who triggered a ledger mutation.
type Actor struct {
	Type string // "member", "admin", "system"
	ID   string
}

var SystemActor = Actor{Type: "system", ID: "scheduler"}

type AuditAction string

const (
	AuditEarn     AuditAction = "point_earned"
	AuditDeduct   AuditAction = "point_deducted"
	AuditExchange AuditAction = "point_exchanged"
	AuditExpire   AuditAction = "point_expired"
)

// AuditRecord describes one committed ledger mutation.
type AuditRecord struct {
	ID            string
	EntityType    string // always "LedgerEntry"
	EntityID      EntryID
	Action        AuditAction
	ActorType     string
	ActorID       string
	MemberID      MemberID
	OldBalance    PointAmount
	NewBalance    PointAmount
	CorrelationID string
	Metadata      map[string]string
	CreatedAt     time.Time
}

// AuditLog stores audit records. Also append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, rec AuditRecord) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditRecord, error)
}

type AuditFilter struct {
	MemberID      *MemberID
	Actions       []AuditAction
	CorrelationID *string
	From          *time.Time
	To            *time.Time
}
