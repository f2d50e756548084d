/*
scheduler.go - Automated expiration scheduler

PURPOSE:
  Periodically runs the ledger's expiration sweep so lots past their
  expiry are written off without manual intervention.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - The sweep itself is idempotent, so overlapping or repeated runs
    are harmless
  - Per-lot failures are logged and retried naturally on the next tick

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewExpirationScheduler(engine)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunSweep endpoint (manual trigger)
  - ledger/sweep.go: The sweep itself
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/meridian/point-ledger/ledger"
)

// ExpirationScheduler drives the expiration sweep on a timer.
type ExpirationScheduler struct {
	Engine        *ledger.Engine
	CheckInterval time.Duration
	Enabled       bool

	ticker  *time.Ticker
	stop    chan bool
	stopped bool
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewExpirationScheduler creates a new scheduler.
func NewExpirationScheduler(engine *ledger.Engine) *ExpirationScheduler {
	return &ExpirationScheduler{
		Engine:        engine,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (es *ExpirationScheduler) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.wg.Add(1)

	go es.run()

	log.Printf("[Scheduler] Started with check interval: %v", es.CheckInterval)
}

// Stop stops the scheduler. Safe to call when never started, and more
// than once.
func (es *ExpirationScheduler) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker == nil || es.stopped {
		return
	}
	es.stopped = true
	es.ticker.Stop()
	close(es.stop)
	es.wg.Wait()
	log.Println("[Scheduler] Stopped")
}

func (es *ExpirationScheduler) run() {
	defer es.wg.Done()

	// Run immediately on start
	es.sweep()

	for {
		select {
		case <-es.ticker.C:
			es.sweep()
		case <-es.stop:
			return
		}
	}
}

func (es *ExpirationScheduler) sweep() {
	ctx := context.Background()
	asOf := time.Now().UTC()

	log.Printf("[Scheduler] Running expiration sweep at %v", asOf.Format(time.RFC3339))

	report, err := es.Engine.RunExpirationSweep(ctx, asOf)
	if err != nil {
		log.Printf("[Scheduler] Sweep failed: %v", err)
		return
	}

	for _, f := range report.Failures {
		log.Printf("[Scheduler] Could not expire lot %s (member %s): %s", f.LotID, f.MemberID, f.Reason)
	}
	if report.Processed > 0 {
		log.Printf("[Scheduler] Completed: %d examined, %d expired, %d failed",
			report.Processed, report.ExpiredCount, len(report.Failures))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (es *ExpirationScheduler) RunNow() {
	es.sweep()
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (es *ExpirationScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(es.CheckInterval)
}
