/*
Package sqlite provides a SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.TxStore, ledger.AuditLog, and the member registry
  using SQLite. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The entry log is append-only:
  - No DELETE statements on ledger_entries
  - The only UPDATEs touch the two materialized projections: a lot's
    remaining counter and its one-way is_expired flag
  History is never edited; expirations and consumptions are new entries.

KEY TABLES:
  ledger_entries: Immutable log of all balance changes. Earned rows carry
                  expires_at and a transactionally-maintained remaining
                  column (the per-lot projection).
  members:        Member registry.
  audit_log:      One row per committed ledger mutation. Append-only.

INDEXES:
  - idx_entries_member_created:  Balance fold and history (hot path)
  - idx_entries_open_lots:       FIFO lot selection
  - idx_entries_expirable:       Expiration sweep candidates

CONCURRENCY:
  Uses a sync.Mutex held for the duration of each write transaction, so
  concurrent mutations are serialized at the application level on top of
  SQLite's single-writer model. A lock wait that exceeds busy_timeout
  surfaces as ledger.ErrConflict (retryable).

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/points.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := ledger.NewEngine(store)

SEE ALSO:
  - ledger/store.go:        Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/meridian/point-ledger/ledger"
)

// Store implements ledger.TxStore, ledger.AuditLog, and the member registry.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Ledger entries (append-only log)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('earned', 'deducted', 'expired', 'exchanged')),
		description TEXT NOT NULL,
		expires_at TEXT,
		is_expired BOOLEAN NOT NULL DEFAULT FALSE,
		remaining TEXT,
		created_at TEXT NOT NULL,

		-- kind/expiry pairing: earned rows carry expiry and remaining,
		-- removal rows carry neither
		CHECK ((kind = 'earned') = (expires_at IS NOT NULL)),
		CHECK ((kind = 'earned') = (remaining IS NOT NULL))
	);

	-- Balance fold and history (hot path)
	CREATE INDEX IF NOT EXISTS idx_entries_member_created
		ON ledger_entries(member_id, created_at, id);

	-- FIFO lot selection
	CREATE INDEX IF NOT EXISTS idx_entries_open_lots
		ON ledger_entries(member_id, created_at, id)
		WHERE kind = 'earned' AND is_expired = FALSE;

	-- Expiration sweep candidates
	CREATE INDEX IF NOT EXISTS idx_entries_expirable
		ON ledger_entries(expires_at)
		WHERE kind = 'earned' AND is_expired = FALSE;

	-- Members
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		joined_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Audit log (append-only, one row per committed ledger mutation)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		action TEXT NOT NULL,
		actor_type TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		old_balance TEXT NOT NULL,
		new_balance TEXT NOT NULL,
		correlation_id TEXT,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_member
		ON audit_log(member_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_audit_correlation
		ON audit_log(correlation_id) WHERE correlation_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// queryer is satisfied by both *sql.DB and *sql.Tx, so reads and writes can
// run inside or outside a transaction with the same code.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ENTRY STORE (ledger.Store interface)
// =============================================================================

// timeFormat is fixed-width so TEXT comparisons in SQL order chronologically.
// RFC3339Nano trims trailing zeros, which breaks lexicographic ordering
// within a second.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const entryColumns = `id, member_id, amount, kind, description, expires_at, is_expired, remaining, created_at`

// InsertEntry appends an entry to the log.
func (s *Store) InsertEntry(ctx context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertEntry(ctx, s.db, e)
}

func insertEntry(ctx context.Context, q queryer, e ledger.Entry) error {
	var expiresAt, remaining any
	if e.Kind == ledger.KindEarned {
		expiresAt = e.ExpiresAt.UTC().Format(timeFormat)
		remaining = e.Amount.String()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO ledger_entries
		(id, member_id, amount, kind, description, expires_at, is_expired, remaining, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.MemberID,
		e.Amount.String(),
		e.Kind,
		e.Description,
		expiresAt,
		e.IsExpired,
		remaining,
		e.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

// Entry returns a single entry by ID.
func (s *Store) Entry(ctx context.Context, id ledger.EntryID) (ledger.Entry, error) {
	return getEntry(ctx, s.db, id)
}

func getEntry(ctx context.Context, q queryer, id ledger.EntryID) (ledger.Entry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE id = ?`, id)
	if err != nil {
		return ledger.Entry{}, translateErr(err)
	}
	defer rows.Close()

	if !rows.Next() {
		// A query failure must not masquerade as a missing entry
		if err := rows.Err(); err != nil {
			return ledger.Entry{}, translateErr(err)
		}
		return ledger.Entry{}, ledger.ErrEntryNotFound
	}
	e, _, err := scanEntry(rows)
	return e, err
}

// EntriesByMember returns all of a member's entries, oldest first.
func (s *Store) EntriesByMember(ctx context.Context, memberID ledger.MemberID) ([]ledger.Entry, error) {
	return entriesByMember(ctx, s.db, memberID)
}

func entriesByMember(ctx context.Context, q queryer, memberID ledger.MemberID) ([]ledger.Entry, error) {
	entries, _, err := queryEntries(ctx, q, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE member_id = ?
		ORDER BY created_at ASC, id ASC`, memberID)
	return entries, err
}

// History returns a page of a member's entries, newest first.
func (s *Store) History(ctx context.Context, memberID ledger.MemberID, page ledger.Pagination) ([]ledger.Entry, error) {
	return history(ctx, s.db, memberID, page)
}

func history(ctx context.Context, q queryer, memberID ledger.MemberID, page ledger.Pagination) ([]ledger.Entry, error) {
	page = page.Normalize()
	entries, _, err := queryEntries(ctx, q, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE member_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, memberID, page.PerPage, page.Offset())
	return entries, err
}

// OpenLots returns the member's consumable lots in earn order.
func (s *Store) OpenLots(ctx context.Context, memberID ledger.MemberID) ([]ledger.Lot, error) {
	return openLots(ctx, s.db, memberID)
}

func openLots(ctx context.Context, q queryer, memberID ledger.MemberID) ([]ledger.Lot, error) {
	_, lots, err := queryEntries(ctx, q, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE member_id = ? AND kind = 'earned' AND is_expired = FALSE
		  AND CAST(remaining AS REAL) > 0
		ORDER BY created_at ASC, id ASC`, memberID)
	return lots, err
}

// Lot returns a single lot with its remaining amount.
func (s *Store) Lot(ctx context.Context, id ledger.EntryID) (ledger.Lot, error) {
	return getLot(ctx, s.db, id)
}

func getLot(ctx context.Context, q queryer, id ledger.EntryID) (ledger.Lot, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE id = ? AND kind = 'earned'`, id)
	if err != nil {
		return ledger.Lot{}, translateErr(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return ledger.Lot{}, translateErr(err)
		}
		return ledger.Lot{}, ledger.ErrEntryNotFound
	}
	e, rem, err := scanEntry(rows)
	if err != nil {
		return ledger.Lot{}, err
	}
	return ledger.Lot{Entry: e, Remaining: rem}, nil
}

// ExpirableLots returns sweep candidates across all members.
func (s *Store) ExpirableLots(ctx context.Context, asOf time.Time) ([]ledger.Lot, error) {
	return expirableLots(ctx, s.db, asOf)
}

func expirableLots(ctx context.Context, q queryer, asOf time.Time) ([]ledger.Lot, error) {
	_, lots, err := queryEntries(ctx, q, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE kind = 'earned' AND is_expired = FALSE
		  AND expires_at <= ?
		  AND CAST(remaining AS REAL) > 0
		ORDER BY created_at ASC, id ASC`,
		asOf.UTC().Format(timeFormat))
	return lots, err
}

// DebitLot decrements a lot's remaining counter.
func (s *Store) DebitLot(ctx context.Context, id ledger.EntryID, amount ledger.PointAmount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return debitLot(ctx, s.db, id, amount)
}

func debitLot(ctx context.Context, q queryer, id ledger.EntryID, amount ledger.PointAmount) error {
	// SQLite stores decimals as TEXT, so the subtraction happens in Go and
	// the write is guarded by the value read inside the same transaction.
	lot, err := getLot(ctx, q, id)
	if err != nil {
		return err
	}
	rem, err := lot.Remaining.Sub(amount)
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE ledger_entries SET remaining = ?
		WHERE id = ? AND kind = 'earned' AND is_expired = FALSE AND remaining = ?`,
		rem.String(), id, lot.Remaining.String())
	if err != nil {
		return translateErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrConflict
	}
	return nil
}

// MarkLotExpired performs the one-way is_expired flip.
func (s *Store) MarkLotExpired(ctx context.Context, id ledger.EntryID, asOf time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markLotExpired(ctx, s.db, id, asOf)
}

func markLotExpired(ctx context.Context, q queryer, id ledger.EntryID, asOf time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE ledger_entries SET is_expired = TRUE
		WHERE id = ? AND kind = 'earned' AND is_expired = FALSE AND expires_at <= ?`,
		id, asOf.UTC().Format(timeFormat))
	if err != nil {
		return translateErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrConflict
	}
	return nil
}

func queryEntries(ctx context.Context, q queryer, query string, args ...any) ([]ledger.Entry, []ledger.Lot, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, translateErr(err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	var lots []ledger.Lot
	for rows.Next() {
		e, rem, err := scanEntry(rows)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, e)
		if e.Kind == ledger.KindEarned {
			lots = append(lots, ledger.Lot{Entry: e, Remaining: rem})
		}
	}
	return entries, lots, rows.Err()
}

func scanEntry(rows *sql.Rows) (ledger.Entry, ledger.PointAmount, error) {
	var (
		e         ledger.Entry
		amount    string
		expiresAt sql.NullString
		remaining sql.NullString
		createdAt string
	)
	err := rows.Scan(&e.ID, &e.MemberID, &amount, &e.Kind, &e.Description,
		&expiresAt, &e.IsExpired, &remaining, &createdAt)
	if err != nil {
		return e, ledger.PointAmount{}, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.Amount, err = ledger.ParsePointAmount(amount)
	if err != nil {
		return e, ledger.PointAmount{}, err
	}
	e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return e, ledger.PointAmount{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if expiresAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, expiresAt.String)
		if err != nil {
			return e, ledger.PointAmount{}, fmt.Errorf("failed to parse expires_at: %w", err)
		}
		e.ExpiresAt = &t
	}

	var rem ledger.PointAmount
	if remaining.Valid {
		rem, err = ledger.ParsePointAmount(remaining.String)
		if err != nil {
			return e, ledger.PointAmount{}, err
		}
	}
	return e, rem, nil
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithMemberTx executes fn within a database transaction. The store-level
// mutex serializes write transactions, which subsumes the per-member
// serialization contract.
func (s *Store) WithMemberTx(ctx context.Context, memberID ledger.MemberID, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return translateErr(err)
	}
	return nil
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) InsertEntry(ctx context.Context, e ledger.Entry) error {
	return insertEntry(ctx, ts.tx, e)
}

func (ts *txStore) Entry(ctx context.Context, id ledger.EntryID) (ledger.Entry, error) {
	return getEntry(ctx, ts.tx, id)
}

func (ts *txStore) EntriesByMember(ctx context.Context, memberID ledger.MemberID) ([]ledger.Entry, error) {
	return entriesByMember(ctx, ts.tx, memberID)
}

func (ts *txStore) History(ctx context.Context, memberID ledger.MemberID, page ledger.Pagination) ([]ledger.Entry, error) {
	return history(ctx, ts.tx, memberID, page)
}

func (ts *txStore) OpenLots(ctx context.Context, memberID ledger.MemberID) ([]ledger.Lot, error) {
	return openLots(ctx, ts.tx, memberID)
}

func (ts *txStore) Lot(ctx context.Context, id ledger.EntryID) (ledger.Lot, error) {
	return getLot(ctx, ts.tx, id)
}

func (ts *txStore) ExpirableLots(ctx context.Context, asOf time.Time) ([]ledger.Lot, error) {
	return expirableLots(ctx, ts.tx, asOf)
}

func (ts *txStore) DebitLot(ctx context.Context, id ledger.EntryID, amount ledger.PointAmount) error {
	return debitLot(ctx, ts.tx, id, amount)
}

func (ts *txStore) MarkLotExpired(ctx context.Context, id ledger.EntryID, asOf time.Time) error {
	return markLotExpired(ctx, ts.tx, id, asOf)
}

func (ts *txStore) AppendAudit(ctx context.Context, rec ledger.AuditRecord) error {
	return appendAudit(ctx, ts.tx, rec)
}

// =============================================================================
// AUDIT LOG (ledger.AuditLog interface)
// =============================================================================

// AppendAudit records an audit entry outside a transaction. The engine's
// write path always goes through the transactional variant instead.
func (s *Store) AppendAudit(ctx context.Context, rec ledger.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendAudit(ctx, s.db, rec)
}

func appendAudit(ctx context.Context, q queryer, rec ledger.AuditRecord) error {
	metadataJSON, _ := json.Marshal(rec.Metadata)

	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_log
		(id, entity_type, entity_id, action, actor_type, actor_id, member_id,
		 old_balance, new_balance, correlation_id, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.EntityType,
		rec.EntityID,
		rec.Action,
		rec.ActorType,
		rec.ActorID,
		rec.MemberID,
		rec.OldBalance.String(),
		rec.NewBalance.String(),
		nullString(rec.CorrelationID),
		string(metadataJSON),
		rec.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

// QueryAudit returns audit records matching the filter, oldest first.
func (s *Store) QueryAudit(ctx context.Context, filter ledger.AuditFilter) ([]ledger.AuditRecord, error) {
	query := `
		SELECT id, entity_type, entity_id, action, actor_type, actor_id, member_id,
		       old_balance, new_balance, correlation_id, metadata_json, created_at
		FROM audit_log WHERE 1=1`
	var args []any

	if filter.MemberID != nil {
		query += " AND member_id = ?"
		args = append(args, *filter.MemberID)
	}
	if filter.CorrelationID != nil {
		query += " AND correlation_id = ?"
		args = append(args, *filter.CorrelationID)
	}
	if len(filter.Actions) > 0 {
		query += " AND action IN (?" + strings.Repeat(",?", len(filter.Actions)-1) + ")"
		for _, a := range filter.Actions {
			args = append(args, a)
		}
	}
	if filter.From != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.From.UTC().Format(timeFormat))
	}
	if filter.To != nil {
		query += " AND created_at <= ?"
		args = append(args, filter.To.UTC().Format(timeFormat))
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var records []ledger.AuditRecord
	for rows.Next() {
		var (
			rec           ledger.AuditRecord
			oldBalance    string
			newBalance    string
			correlationID sql.NullString
			metadataJSON  sql.NullString
			createdAt     string
		)
		if err := rows.Scan(&rec.ID, &rec.EntityType, &rec.EntityID, &rec.Action,
			&rec.ActorType, &rec.ActorID, &rec.MemberID,
			&oldBalance, &newBalance, &correlationID, &metadataJSON, &createdAt); err != nil {
			return nil, err
		}
		rec.OldBalance, err = ledger.ParsePointAmount(oldBalance)
		if err != nil {
			return nil, fmt.Errorf("failed to parse old_balance: %w", err)
		}
		rec.NewBalance, err = ledger.ParsePointAmount(newBalance)
		if err != nil {
			return nil, fmt.Errorf("failed to parse new_balance: %w", err)
		}
		rec.CorrelationID = correlationID.String
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// MEMBER REGISTRY
// =============================================================================

// Member is a member record. The ledger references members by ID but does
// not own them; this registry is the thin backing for the admin surface.
type Member struct {
	ID        string
	Name      string
	Email     string
	JoinedAt  time.Time
	CreatedAt time.Time
}

// SaveMember inserts or updates a member.
func (s *Store) SaveMember(ctx context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, name, email, joined_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			joined_at = excluded.joined_at`,
		m.ID, m.Name, m.Email,
		m.JoinedAt.UTC().Format(timeFormat),
		time.Now().UTC().Format(timeFormat),
	)
	return translateErr(err)
}

// GetMember retrieves a member by ID. Returns nil if not found.
func (s *Store) GetMember(ctx context.Context, id string) (*Member, error) {
	var m Member
	var joinedAt, createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, joined_at, created_at FROM members WHERE id = ?", id,
	).Scan(&m.ID, &m.Name, &m.Email, &joinedAt, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, translateErr(err)
	}

	m.JoinedAt, _ = time.Parse(time.RFC3339Nano, joinedAt)
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &m, nil
}

// ListMembers returns all members ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, joined_at, created_at FROM members ORDER BY name")
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var joinedAt, createdAt string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &joinedAt, &createdAt); err != nil {
			return nil, err
		}
		m.JoinedAt, _ = time.Parse(time.RFC3339Nano, joinedAt)
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		members = append(members, m)
	}
	return members, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// translateErr maps driver-level errors onto the ledger taxonomy so callers
// never string-match SQLite internals.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", ledger.ErrConflict, err)
	}
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ledger.ErrConflict, err)
	}
	return err
}
