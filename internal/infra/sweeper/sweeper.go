// Package sweeper claims expired escrows in the background so payers
// get their refunds without having to poll for timeouts themselves.
package sweeper

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/wildhash/agentpay/internal/domain"
	"github.com/wildhash/agentpay/internal/infra/metrics"
)

const defaultInterval = 30 * time.Second

// Ledger is the slice of the escrow ledger the sweeper needs.
type Ledger interface {
	ExpiredTasks() []domain.Task
	ClaimTimeout(caller string, taskID uint64) (*domain.Task, error)
}

// Sweeper periodically times out overdue escrows on the payer's behalf.
type Sweeper struct {
	ledger   Ledger
	interval time.Duration
}

// NewSweeper creates a sweeper. A non-positive interval falls back to
// the default.
func NewSweeper(ledger Ledger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{ledger: ledger, interval: interval}
}

// Run starts the sweep loop. Call in a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	// Sweep immediately on start so a restart catches escrows that
	// expired while the daemon was down.
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep claims every escrow currently past its deadline and returns
// the number claimed.
func (s *Sweeper) Sweep() int {
	claimed := 0
	for _, task := range s.ledger.ExpiredTasks() {
		if _, err := s.ledger.ClaimTimeout(task.Payer, task.ID); err != nil {
			// Another actor can settle the task between the listing
			// and the claim. That race is not a fault.
			if errors.Is(err, domain.ErrTaskAlreadySubmitted) {
				continue
			}
			log.Printf("[sweeper] WARNING: claim task %d: %v", task.ID, err)
			continue
		}
		log.Printf("[sweeper] task %d timed out, refunded %s to %s",
			task.ID, domain.FormatAmount(task.Amount), task.Payer)
		metrics.SweeperClaims.Inc()
		claimed++
	}
	return claimed
}
