/*
handlers.go - HTTP API handlers for the point ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Members:
    GET    /api/members                List all members
    POST   /api/members                Create member
    GET    /api/members/{id}           Get member details
    GET    /api/members/{id}/balance   Available balance
    GET    /api/members/{id}/history   Ledger entries, newest first (paged)
    GET    /api/members/{id}/audit     Audit trail for the member

  Ledger operations:
    POST   /api/members/{id}/earn      Credit a new lot
    POST   /api/members/{id}/deduct    Spend points (FIFO)
    POST   /api/members/{id}/exchange  Spend points against a redemption

  Admin:
    POST   /api/admin/sweep            Run the expiration sweep now

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (member exists, amount parses)
  3. Call the engine
  4. Serialize response
  5. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Member or entry not found
  - 409: Insufficient points, transaction conflicts (retryable)
  - 500: Internal errors

ACTOR ATTRIBUTION:
  Mutations read X-Actor-Type / X-Actor-ID headers for the audit trail,
  defaulting to api/anonymous. No authentication; attribution is
  advisory until an auth layer fronts this service.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - ledger/engine.go: The operations behind these handlers
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meridian/point-ledger/ledger"
	"github.com/meridian/point-ledger/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *ledger.Engine
	Store  *sqlite.Store
}

// NewHandler creates a new handler around the engine and its store.
func NewHandler(engine *ledger.Engine, store *sqlite.Store) *Handler {
	return &Handler{Engine: engine, Store: store}
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// ListMembers returns all members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Store.ListMembers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}

	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMember returns a single member.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.Store.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(*m))
}

// CreateMember creates a new member.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	joinedAt := time.Now().UTC()
	if req.JoinedAt != "" {
		var err error
		joinedAt, err = time.Parse("2006-01-02", req.JoinedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid joined_at format (use YYYY-MM-DD)", err)
			return
		}
	}

	m := sqlite.Member{
		ID:       req.ID,
		Name:     req.Name,
		Email:    req.Email,
		JoinedAt: joinedAt,
	}
	if err := h.Store.SaveMember(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create member", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

// =============================================================================
// LEDGER OPERATION HANDLERS
// =============================================================================

// Earn credits a new lot of points to the member.
func (h *Handler) Earn(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	var req EarnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := ledger.ParsePointAmount(req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expires_at format (use RFC 3339)", err)
		return
	}

	entry, err := h.Engine.Earn(r.Context(), memberID, amount, req.Description, expiresAt, actorFrom(r))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// Deduct spends points from the member's oldest lots first.
func (h *Handler) Deduct(w http.ResponseWriter, r *http.Request) {
	h.spend(w, r, h.Engine.Deduct)
}

// Exchange spends points against a privilege redemption.
func (h *Handler) Exchange(w http.ResponseWriter, r *http.Request) {
	h.spend(w, r, h.Engine.Exchange)
}

type spendFunc func(ctx context.Context, memberID ledger.MemberID, amount ledger.PointAmount, description string, actor ledger.Actor) (ledger.Entry, error)

func (h *Handler) spend(w http.ResponseWriter, r *http.Request, op spendFunc) {
	memberID, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	var req SpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := ledger.ParsePointAmount(req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	entry, err := op(r.Context(), memberID, amount, req.Description, actorFrom(r))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// =============================================================================
// READ HANDLERS
// =============================================================================

// GetBalance returns the member's available balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	balance, err := h.Engine.GetBalance(r.Context(), memberID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		MemberID: string(memberID),
		Balance:  balance.String(),
		AsOf:     time.Now().UTC().Format(time.RFC3339),
	})
}

// GetHistory returns a page of the member's ledger entries, newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	page := ledger.Pagination{
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}.Normalize()

	entries, err := h.Engine.GetHistory(r.Context(), memberID, page)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryDTO{
		MemberID: string(memberID),
		Page:     page.Page,
		PerPage:  page.PerPage,
		Entries:  toEntryDTOs(entries),
	})
}

// GetAudit returns the member's audit trail, oldest first.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	filter := ledger.AuditFilter{MemberID: &memberID}
	if action := r.URL.Query().Get("action"); action != "" {
		filter.Actions = []ledger.AuditAction{ledger.AuditAction(action)}
	}

	records, err := h.Store.QueryAudit(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query audit log", err)
		return
	}
	dtos := make([]AuditRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAuditRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunSweep runs the expiration sweep immediately.
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.Engine.RunExpirationSweep(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Expiration sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSweepResultDTO(report))
}

// =============================================================================
// HELPERS
// =============================================================================

// requireMember resolves the {id} URL param against the member registry.
// The ledger itself treats member IDs as opaque references, so existence
// is checked here at the boundary.
func (h *Handler) requireMember(w http.ResponseWriter, r *http.Request) (ledger.MemberID, bool) {
	id := chi.URLParam(r, "id")

	m, err := h.Store.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return "", false
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return "", false
	}
	return ledger.MemberID(id), true
}

func actorFrom(r *http.Request) ledger.Actor {
	actor := ledger.Actor{
		Type: r.Header.Get("X-Actor-Type"),
		ID:   r.Header.Get("X-Actor-ID"),
	}
	if actor.Type == "" {
		actor.Type = "api"
	}
	if actor.ID == "" {
		actor.ID = "anonymous"
	}
	return actor
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// writeLedgerError maps a ledger error onto an HTTP status.
func writeLedgerError(w http.ResponseWriter, err error) {
	var insufficient *ledger.InsufficientPointsError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: "Insufficient points",
			Code:  "insufficient_points",
			Details: map[string]string{
				"required":  insufficient.Required.String(),
				"available": insufficient.Available.String(),
				"deficit":   insufficient.Deficit.String(),
			},
		})
		return
	}

	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case ledger.IsRetryable(err):
		writeError(w, http.StatusConflict, "Transaction conflict, retry the request", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
