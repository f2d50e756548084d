/*
scheduler_test.go - Unit tests for the expiration scheduler

Tests for:
- Stop lifecycle (never started, started, called twice)
- Disabled scheduler refuses to start
*/
package api

import (
	"testing"
	"time"

	"github.com/meridian/point-ledger/ledger"
	"github.com/meridian/point-ledger/store/sqlite"
)

func newTestScheduler(t *testing.T) *ExpirationScheduler {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewExpirationScheduler(ledger.NewEngine(store))
}

func TestScheduler_StopWithoutStartIsSafe(t *testing.T) {
	s := newTestScheduler(t)
	s.Stop() // must not panic or block
}

func TestScheduler_StopTwiceIsSafe(t *testing.T) {
	// GIVEN: A running scheduler
	// WHEN: Stop is called twice (e.g. defer plus explicit shutdown path)
	// THEN: The second call is a no-op, not a close of a closed channel

	s := newTestScheduler(t)
	s.CheckInterval = time.Hour
	s.Start()

	s.Stop()
	s.Stop()
}

func TestScheduler_DisabledDoesNotStart(t *testing.T) {
	s := newTestScheduler(t)
	s.Enabled = false
	s.Start()

	// Never started, so Stop has nothing to tear down
	s.Stop()
}
