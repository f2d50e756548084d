/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal ledger model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Point amounts travel as JSON strings ("150.00") in both directions so
  the two-decimal precision survives serialization. Requests with more
  than two fractional digits are rejected, not rounded.

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/entry.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/meridian/point-ledger/ledger"
	"github.com/meridian/point-ledger/store/sqlite"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// MemberDTO represents a member in API responses.
type MemberDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	JoinedAt  string `json:"joined_at"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateMemberRequest is the request to create a member.
type CreateMemberRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	JoinedAt string `json:"joined_at,omitempty"` // ISO date, defaults to today
}

// EarnRequest credits a new lot of points.
type EarnRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	ExpiresAt   string `json:"expires_at"` // RFC 3339
}

// SpendRequest deducts or exchanges points.
type SpendRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// EntryDTO represents a ledger entry in API responses.
type EntryDTO struct {
	ID          string  `json:"id"`
	MemberID    string  `json:"member_id"`
	Amount      string  `json:"amount"`
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
	IsExpired   bool    `json:"is_expired"`
	CreatedAt   string  `json:"created_at"`
}

// BalanceDTO represents a member's available balance.
type BalanceDTO struct {
	MemberID string `json:"member_id"`
	Balance  string `json:"balance"`
	AsOf     string `json:"as_of"`
}

// HistoryDTO is a page of a member's ledger entries, newest first.
type HistoryDTO struct {
	MemberID string     `json:"member_id"`
	Page     int        `json:"page"`
	PerPage  int        `json:"per_page"`
	Entries  []EntryDTO `json:"entries"`
}

// SweepResultDTO is the outcome of an expiration sweep.
type SweepResultDTO struct {
	AsOf         string            `json:"as_of"`
	Processed    int               `json:"processed"`
	ExpiredCount int               `json:"expired_count"`
	Failures     []SweepFailureDTO `json:"failures,omitempty"`
}

// SweepFailureDTO is a single lot the sweep could not process.
type SweepFailureDTO struct {
	LotID    string `json:"lot_id"`
	MemberID string `json:"member_id"`
	Reason   string `json:"reason"`
}

// AuditRecordDTO represents an audit trail record.
type AuditRecordDTO struct {
	ID            string            `json:"id"`
	EntityType    string            `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	Action        string            `json:"action"`
	ActorType     string            `json:"actor_type"`
	ActorID       string            `json:"actor_id"`
	MemberID      string            `json:"member_id"`
	OldBalance    string            `json:"old_balance"`
	NewBalance    string            `json:"new_balance"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     string            `json:"created_at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toMemberDTO(m sqlite.Member) MemberDTO {
	return MemberDTO{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		JoinedAt:  m.JoinedAt.Format("2006-01-02"),
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

func toEntryDTO(e ledger.Entry) EntryDTO {
	dto := EntryDTO{
		ID:          string(e.ID),
		MemberID:    string(e.MemberID),
		Amount:      e.Amount.String(),
		Kind:        string(e.Kind),
		Description: e.Description,
		IsExpired:   e.IsExpired,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.ExpiresAt != nil {
		s := e.ExpiresAt.Format(time.RFC3339)
		dto.ExpiresAt = &s
	}
	return dto
}

func toEntryDTOs(entries []ledger.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toSweepResultDTO(report ledger.SweepReport) SweepResultDTO {
	dto := SweepResultDTO{
		AsOf:         report.AsOf.Format(time.RFC3339),
		Processed:    report.Processed,
		ExpiredCount: report.ExpiredCount,
	}
	for _, f := range report.Failures {
		dto.Failures = append(dto.Failures, SweepFailureDTO{
			LotID:    string(f.LotID),
			MemberID: string(f.MemberID),
			Reason:   f.Reason,
		})
	}
	return dto
}

func toAuditRecordDTO(rec ledger.AuditRecord) AuditRecordDTO {
	return AuditRecordDTO{
		ID:            rec.ID,
		EntityType:    rec.EntityType,
		EntityID:      string(rec.EntityID),
		Action:        string(rec.Action),
		ActorType:     rec.ActorType,
		ActorID:       rec.ActorID,
		MemberID:      string(rec.MemberID),
		OldBalance:    rec.OldBalance.String(),
		NewBalance:    rec.NewBalance.String(),
		CorrelationID: rec.CorrelationID,
		Metadata:      rec.Metadata,
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
	}
}
