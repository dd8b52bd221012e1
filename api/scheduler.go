/*
scheduler.go - Automated pay period scheduler

PURPOSE:
  Periodically checks for open pay periods whose end date has passed and
  automatically closes them so new trip pays stop landing in stale windows.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Detects OPEN periods where today is past the window end
  - Closing is the only automated transition; locking and exporting stay
    manual because they gate money movement

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewPeriodScheduler(service)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TransitionPeriod endpoint (manual close/lock/export)
  - payroll/service.go: TransitionPayPeriod
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/freightline/pay-engine/engine"
	"github.com/freightline/pay-engine/payroll"
)

// PeriodScheduler closes open pay periods whose window has ended.
type PeriodScheduler struct {
	Service       *payroll.Service
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodScheduler creates a new scheduler.
func NewPeriodScheduler(service *payroll.Service) *PeriodScheduler {
	return &PeriodScheduler{
		Service:       service,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ps *PeriodScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)

	go ps.run()

	log.Printf("[Scheduler] Started with check interval: %v", ps.CheckInterval)
}

// Stop stops the scheduler.
func (ps *PeriodScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ps *PeriodScheduler) run() {
	defer ps.wg.Done()

	// Run immediately on start
	ps.closeExpiredPeriods()

	for {
		select {
		case <-ps.ticker.C:
			ps.closeExpiredPeriods()
		case <-ps.stop:
			return
		}
	}
}

func (ps *PeriodScheduler) closeExpiredPeriods() {
	ctx := context.Background()
	today := engine.Today()

	periods, err := ps.Service.Periods.ListPayPeriods(ctx)
	if err != nil {
		log.Printf("[Scheduler] Failed to list pay periods: %v", err)
		return
	}

	for _, p := range periods {
		if p.Status != payroll.PeriodOpen {
			continue
		}
		if !p.Window.End.Before(today) {
			continue
		}

		log.Printf("[Scheduler] Closing pay period %s (%s ended %s)",
			p.ID, p.Window, p.Window.End)
		if _, err := ps.Service.TransitionPayPeriod(ctx, p.ID, payroll.PeriodClosed); err != nil {
			log.Printf("[Scheduler] Failed to close period %s: %v", p.ID, err)
		}
	}
}
