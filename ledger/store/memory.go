// Package store provides in-memory ledger.TxStore implementations
// for testing and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meridian/point-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.Mutex
	entries   map[ledger.EntryID]ledger.Entry
	order     map[ledger.MemberID][]ledger.EntryID // CreatedAt asc, ID asc
	remaining map[ledger.EntryID]ledger.PointAmount
	audits    []ledger.AuditRecord
}

func NewMemory() *Memory {
	return &Memory{
		entries:   make(map[ledger.EntryID]ledger.Entry),
		order:     make(map[ledger.MemberID][]ledger.EntryID),
		remaining: make(map[ledger.EntryID]ledger.PointAmount),
	}
}

// -----------------------------------------------------------------------------
// ledger.Store
// -----------------------------------------------------------------------------

func (m *Memory) InsertEntry(ctx context.Context, e ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(e)
}

func (m *Memory) insertLocked(e ledger.Entry) error {
	if _, ok := m.entries[e.ID]; ok {
		return ledger.ErrConflict
	}
	m.entries[e.ID] = e

	ids := m.order[e.MemberID]
	i := sort.Search(len(ids), func(i int) bool {
		other := m.entries[ids[i]]
		if !other.CreatedAt.Equal(e.CreatedAt) {
			return other.CreatedAt.After(e.CreatedAt)
		}
		return other.ID > e.ID
	})
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = e.ID
	m.order[e.MemberID] = ids

	if e.Kind == ledger.KindEarned {
		m.remaining[e.ID] = e.Amount
	}
	return nil
}

func (m *Memory) Entry(ctx context.Context, id ledger.EntryID) (ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entryLocked(id)
}

func (m *Memory) entryLocked(id ledger.EntryID) (ledger.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return ledger.Entry{}, ledger.ErrEntryNotFound
	}
	return e, nil
}

func (m *Memory) EntriesByMember(ctx context.Context, memberID ledger.MemberID) ([]ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entriesLocked(memberID), nil
}

func (m *Memory) entriesLocked(memberID ledger.MemberID) []ledger.Entry {
	ids := m.order[memberID]
	result := make([]ledger.Entry, 0, len(ids))
	for _, id := range ids {
		result = append(result, m.entries[id])
	}
	return result
}

func (m *Memory) History(ctx context.Context, memberID ledger.MemberID, page ledger.Pagination) ([]ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	asc := m.entriesLocked(memberID)
	desc := make([]ledger.Entry, 0, len(asc))
	for i := len(asc) - 1; i >= 0; i-- {
		desc = append(desc, asc[i])
	}

	page = page.Normalize()
	start := page.Offset()
	if start >= len(desc) {
		return nil, nil
	}
	end := start + page.PerPage
	if end > len(desc) {
		end = len(desc)
	}
	return desc[start:end], nil
}

func (m *Memory) OpenLots(ctx context.Context, memberID ledger.MemberID) ([]ledger.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openLotsLocked(memberID), nil
}

func (m *Memory) openLotsLocked(memberID ledger.MemberID) []ledger.Lot {
	var lots []ledger.Lot
	for _, id := range m.order[memberID] {
		e := m.entries[id]
		if e.Kind != ledger.KindEarned || e.IsExpired {
			continue
		}
		rem := m.remaining[id]
		if rem.IsZero() {
			continue
		}
		lots = append(lots, ledger.Lot{Entry: e, Remaining: rem})
	}
	return lots
}

func (m *Memory) Lot(ctx context.Context, id ledger.EntryID) (ledger.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lotLocked(id)
}

func (m *Memory) lotLocked(id ledger.EntryID) (ledger.Lot, error) {
	e, err := m.entryLocked(id)
	if err != nil {
		return ledger.Lot{}, err
	}
	if e.Kind != ledger.KindEarned {
		return ledger.Lot{}, ledger.ErrEntryNotFound
	}
	return ledger.Lot{Entry: e, Remaining: m.remaining[id]}, nil
}

func (m *Memory) ExpirableLots(ctx context.Context, asOf time.Time) ([]ledger.Lot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lots []ledger.Lot
	for id, e := range m.entries {
		if !e.Expirable(asOf) {
			continue
		}
		rem := m.remaining[id]
		if rem.IsZero() {
			continue
		}
		lots = append(lots, ledger.Lot{Entry: e, Remaining: rem})
	}
	sort.Slice(lots, func(i, j int) bool {
		if !lots[i].CreatedAt.Equal(lots[j].CreatedAt) {
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		}
		return lots[i].ID < lots[j].ID
	})
	return lots, nil
}

func (m *Memory) DebitLot(ctx context.Context, id ledger.EntryID, amount ledger.PointAmount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debitLocked(id, amount)
}

func (m *Memory) debitLocked(id ledger.EntryID, amount ledger.PointAmount) error {
	lot, err := m.lotLocked(id)
	if err != nil {
		return err
	}
	rem, err := lot.Remaining.Sub(amount)
	if err != nil {
		return err
	}
	m.remaining[id] = rem
	return nil
}

func (m *Memory) MarkLotExpired(ctx context.Context, id ledger.EntryID, asOf time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markExpiredLocked(id, asOf)
}

func (m *Memory) markExpiredLocked(id ledger.EntryID, asOf time.Time) error {
	e, err := m.entryLocked(id)
	if err != nil {
		return err
	}
	if err := e.MarkExpired(asOf); err != nil {
		return err
	}
	m.entries[id] = e
	return nil
}

func (m *Memory) AppendAudit(ctx context.Context, rec ledger.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, rec)
	return nil
}

// -----------------------------------------------------------------------------
// ledger.AuditLog
// -----------------------------------------------------------------------------

func (m *Memory) QueryAudit(ctx context.Context, filter ledger.AuditFilter) ([]ledger.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []ledger.AuditRecord
	for _, rec := range m.audits {
		if filter.MemberID != nil && rec.MemberID != *filter.MemberID {
			continue
		}
		if filter.CorrelationID != nil && rec.CorrelationID != *filter.CorrelationID {
			continue
		}
		if len(filter.Actions) > 0 && !containsAction(filter.Actions, rec.Action) {
			continue
		}
		if filter.From != nil && rec.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && rec.CreatedAt.After(*filter.To) {
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

func containsAction(actions []ledger.AuditAction, a ledger.AuditAction) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with member-scoped transaction support.
type TxMemory struct {
	*Memory
	txMu sync.Mutex // serializes transactions; member-level locking in tests
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithMemberTx executes fn within a transaction, simulated with a
// snapshot + rollback on error. Transactions are fully serialized, which
// trivially satisfies the per-member serialization contract.
func (tm *TxMemory) WithMemberTx(ctx context.Context, memberID ledger.MemberID, fn func(ledger.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	tm.mu.Lock()
	snap := tm.snapshotLocked()
	tm.mu.Unlock()

	view := &txMemoryView{parent: tm.Memory}
	if err := fn(view); err != nil {
		tm.mu.Lock()
		tm.restoreLocked(snap)
		tm.mu.Unlock()
		return err
	}
	return nil
}

type memorySnapshot struct {
	entries   map[ledger.EntryID]ledger.Entry
	order     map[ledger.MemberID][]ledger.EntryID
	remaining map[ledger.EntryID]ledger.PointAmount
	auditLen  int
}

func (m *Memory) snapshotLocked() memorySnapshot {
	entries := make(map[ledger.EntryID]ledger.Entry, len(m.entries))
	for k, v := range m.entries {
		entries[k] = v
	}
	order := make(map[ledger.MemberID][]ledger.EntryID, len(m.order))
	for k, v := range m.order {
		order[k] = append([]ledger.EntryID{}, v...)
	}
	remaining := make(map[ledger.EntryID]ledger.PointAmount, len(m.remaining))
	for k, v := range m.remaining {
		remaining[k] = v
	}
	return memorySnapshot{entries: entries, order: order, remaining: remaining, auditLen: len(m.audits)}
}

func (m *Memory) restoreLocked(s memorySnapshot) {
	m.entries = s.entries
	m.order = s.order
	m.remaining = s.remaining
	m.audits = m.audits[:s.auditLen]
}

// txMemoryView routes calls through the parent store. The outer txMu already
// serializes the whole transaction.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) InsertEntry(ctx context.Context, e ledger.Entry) error {
	tv.parent.mu.Lock()
	defer tv.parent.mu.Unlock()
	return tv.parent.insertLocked(e)
}

func (tv *txMemoryView) Entry(ctx context.Context, id ledger.EntryID) (ledger.Entry, error) {
	return tv.parent.Entry(ctx, id)
}

func (tv *txMemoryView) EntriesByMember(ctx context.Context, memberID ledger.MemberID) ([]ledger.Entry, error) {
	return tv.parent.EntriesByMember(ctx, memberID)
}

func (tv *txMemoryView) History(ctx context.Context, memberID ledger.MemberID, page ledger.Pagination) ([]ledger.Entry, error) {
	return tv.parent.History(ctx, memberID, page)
}

func (tv *txMemoryView) OpenLots(ctx context.Context, memberID ledger.MemberID) ([]ledger.Lot, error) {
	return tv.parent.OpenLots(ctx, memberID)
}

func (tv *txMemoryView) Lot(ctx context.Context, id ledger.EntryID) (ledger.Lot, error) {
	return tv.parent.Lot(ctx, id)
}

func (tv *txMemoryView) ExpirableLots(ctx context.Context, asOf time.Time) ([]ledger.Lot, error) {
	return tv.parent.ExpirableLots(ctx, asOf)
}

func (tv *txMemoryView) DebitLot(ctx context.Context, id ledger.EntryID, amount ledger.PointAmount) error {
	tv.parent.mu.Lock()
	defer tv.parent.mu.Unlock()
	return tv.parent.debitLocked(id, amount)
}

func (tv *txMemoryView) MarkLotExpired(ctx context.Context, id ledger.EntryID, asOf time.Time) error {
	tv.parent.mu.Lock()
	defer tv.parent.mu.Unlock()
	return tv.parent.markExpiredLocked(id, asOf)
}

func (tv *txMemoryView) AppendAudit(ctx context.Context, rec ledger.AuditRecord) error {
	return tv.parent.AppendAudit(ctx, rec)
}
