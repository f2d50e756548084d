/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Member creation and lookup
- Earn/deduct round trips through the HTTP surface
- Error status mapping (404 unknown member, 409 insufficient points)
- Expiration sweep endpoint
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meridian/point-ledger/ledger"
	"github.com/meridian/point-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testAPI struct {
	router http.Handler
	now    *time.Time
}

func newTestAPI(t *testing.T) *testAPI {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	engine := ledger.NewEngine(store)
	engine.Clock = func() time.Time { return now }

	handler := NewHandler(engine, store)
	return &testAPI{
		router: NewRouter(handler, RouterOptions{}),
		now:    &now,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) createMember(t *testing.T, id string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/members", map[string]string{
		"id":   id,
		"name": "Test Member",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Failed to create member: %d %s", rec.Code, rec.Body)
	}
}

func (a *testAPI) earn(t *testing.T, memberID string, amount string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/members/"+memberID+"/earn", map[string]string{
		"amount":      amount,
		"description": "earned points",
		"expires_at":  a.now.AddDate(1, 0, 0).Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Failed to earn: %d %s", rec.Code, rec.Body)
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response: %v\n%s", err, rec.Body)
	}
	return v
}

// =============================================================================
// MEMBER TESTS
// =============================================================================

func TestAPI_CreateAndGetMember(t *testing.T) {
	api := newTestAPI(t)
	api.createMember(t, "m-1")

	rec := api.do(t, http.MethodGet, "/api/members/m-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	member := decode[MemberDTO](t, rec)
	if member.ID != "m-1" || member.Name != "Test Member" {
		t.Errorf("Unexpected member: %+v", member)
	}
}

func TestAPI_UnknownMemberIs404(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{
		"/api/members/ghost",
		"/api/members/ghost/balance",
		"/api/members/ghost/history",
	} {
		rec := api.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}

	// Mutations against an unknown member never touch the ledger
	rec := api.do(t, http.MethodPost, "/api/members/ghost/earn", map[string]string{
		"amount":      "10",
		"description": "free points",
		"expires_at":  time.Now().AddDate(1, 0, 0).Format(time.RFC3339),
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

// =============================================================================
// LEDGER OPERATION TESTS
// =============================================================================

func TestAPI_EarnThenBalance(t *testing.T) {
	api := newTestAPI(t)
	api.createMember(t, "m-1")
	api.earn(t, "m-1", "150.25")

	rec := api.do(t, http.MethodGet, "/api/members/m-1/balance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	balance := decode[BalanceDTO](t, rec)
	if balance.Balance != "150.25" {
		t.Errorf("Expected balance 150.25, got %s", balance.Balance)
	}
}

func TestAPI_DeductHappyPath(t *testing.T) {
	api := newTestAPI(t)
	api.createMember(t, "m-1")
	api.earn(t, "m-1", "100")

	rec := api.do(t, http.MethodPost, "/api/members/m-1/deduct", map[string]string{
		"amount":      "40",
		"description": "store purchase",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body)
	}
	entry := decode[EntryDTO](t, rec)
	if entry.Kind != "deducted" || entry.Amount != "40.00" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestAPI_InsufficientPointsIs409(t *testing.T) {
	api := newTestAPI(t)
	api.createMember(t, "m-1")
	api.earn(t, "m-1", "10")

	rec := api.do(t, http.MethodPost, "/api/members/m-1/deduct", map[string]string{
		"amount":      "25",
		"description": "too ambitious",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", rec.Code, rec.Body)
	}
	resp := decode[ErrorResponse](t, rec)
	if resp.Code != "insufficient_points" {
		t.Errorf("Expected insufficient_points code, got %q", resp.Code)
	}
	details, ok := resp.Details.(map[string]any)
	if !ok {
		t.Fatalf("Expected structured details, got %T", resp.Details)
	}
	if details["deficit"] != "15.00" {
		t.Errorf("Expected deficit 15.00, got %v", details["deficit"])
	}
}

func TestAPI_InvalidAmountIs400(t *testing.T) {
	api := newTestAPI(t)
	api.createMember(t, "m-1")

	// Three decimal places are rejected, not rounded
	rec := api.do(t, http.MethodPost, "/api/members/m-1/earn", map[string]string{
		"amount":      "10.555",
		"description": "precise points",
		"expires_at":  time.Now().AddDate(1, 0, 0).Format(time.RFC3339),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body)
	}
}

func TestAPI_HistoryNewestFirst(t *testing.T) {
	api := newTestAPI(t)
	api.createMember(t, "m-1")
	api.earn(t, "m-1", "100")

	*api.now = api.now.Add(time.Hour)
	rec := api.do(t, http.MethodPost, "/api/members/m-1/exchange", map[string]string{
		"amount":      "30",
		"description": "redeemed: gift card",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Exchange failed: %d %s", rec.Code, rec.Body)
	}

	rec = api.do(t, http.MethodGet, "/api/members/m-1/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	history := decode[HistoryDTO](t, rec)
	if len(history.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(history.Entries))
	}
	if history.Entries[0].Kind != "exchanged" {
		t.Errorf("Newest entry should come first, got %s", history.Entries[0].Kind)
	}
}

// =============================================================================
// SWEEP ENDPOINT TESTS
// =============================================================================

func TestAPI_SweepEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.createMember(t, "m-1")

	// Expire in one minute, then step the clock past it
	rec := api.do(t, http.MethodPost, "/api/members/m-1/earn", map[string]string{
		"amount":      "50",
		"description": "short-lived bonus",
		"expires_at":  api.now.Add(time.Minute).Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Earn failed: %d %s", rec.Code, rec.Body)
	}

	// The sweep endpoint runs against wall time, which is well past 2025
	// fixture time, so the lot is due
	rec = api.do(t, http.MethodPost, "/api/admin/sweep", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	result := decode[SweepResultDTO](t, rec)
	if result.ExpiredCount != 1 {
		t.Errorf("Expected 1 expired lot, got %d", result.ExpiredCount)
	}

	rec = api.do(t, http.MethodGet, "/api/members/m-1/balance", nil)
	balance := decode[BalanceDTO](t, rec)
	if balance.Balance != "0.00" {
		t.Errorf("Expected zero balance after sweep, got %s", balance.Balance)
	}
}

// =============================================================================
// AUDIT ENDPOINT TESTS
// =============================================================================

func TestAPI_AuditTrail(t *testing.T) {
	api := newTestAPI(t)
	api.createMember(t, "m-1")
	api.earn(t, "m-1", "100")

	rec := api.do(t, http.MethodPost, "/api/members/m-1/deduct", map[string]string{
		"amount":      "30",
		"description": "spend",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Deduct failed: %d %s", rec.Code, rec.Body)
	}

	rec = api.do(t, http.MethodGet, "/api/members/m-1/audit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	records := decode[[]AuditRecordDTO](t, rec)
	if len(records) != 2 {
		t.Fatalf("Expected 2 audit records, got %d", len(records))
	}
	if records[1].Action != "point_deducted" {
		t.Errorf("Expected point_deducted, got %s", records[1].Action)
	}
	if records[1].OldBalance != "100.00" || records[1].NewBalance != "70.00" {
		t.Errorf("Unexpected balance transition: %s -> %s", records[1].OldBalance, records[1].NewBalance)
	}

	// Filtered by action
	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/members/m-1/audit?action=%s", "point_earned"), nil)
	earned := decode[[]AuditRecordDTO](t, rec)
	if len(earned) != 1 {
		t.Errorf("Expected 1 earned record, got %d", len(earned))
	}
}
