package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/solpolar1990-debug/ozon-price-tracker/services"
)

// PriceChecker runs full reconciliation on a cron schedule
type PriceChecker struct {
	cron       *cron.Cron
	tracker    *services.PriceTracker
	spec       string
	runTimeout time.Duration
}

// NewPriceChecker creates a scheduled checker. spec uses the six-field
// cron format (with seconds); runTimeout caps one run's wall-clock time.
func NewPriceChecker(tracker *services.PriceTracker, spec string, runTimeout time.Duration) *PriceChecker {
	return &PriceChecker{
		cron:       cron.New(cron.WithSeconds()),
		tracker:    tracker,
		spec:       spec,
		runTimeout: runTimeout,
	}
}

// Start schedules the recurring check and runs one immediately
func (pc *PriceChecker) Start() {
	_, err := pc.cron.AddFunc(pc.spec, pc.runCheck)
	if err != nil {
		log.Printf("Failed to schedule price checker: %v", err)
		return
	}

	go pc.runCheck()

	pc.cron.Start()
	log.Printf("Price checker scheduled with spec %q", pc.spec)
}

// Stop stops the scheduled price checking
func (pc *PriceChecker) Stop() {
	if pc.cron != nil {
		pc.cron.Stop()
	}
}

// runCheck executes one full reconciliation run under a timeout
func (pc *PriceChecker) runCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), pc.runTimeout)
	defer cancel()

	start := time.Now()
	result := pc.tracker.CheckAllPrices(ctx)

	log.Printf("Scheduled check finished in %v: checked %d, notified %d, %d errors",
		time.Since(start), result.TotalChecked, result.NotificationsSent, len(result.Errors))
	for _, errMsg := range result.Errors {
		log.Printf("  check error: %s", errMsg)
	}
}

// ManualCheck allows manual triggering of a full check
func (pc *PriceChecker) ManualCheck() {
	log.Println("Manual price check triggered")
	pc.runCheck()
}
