// Package health runs periodic self-checks over the escrow daemon's
// storage and funds backing.
package health

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/wildhash/agentpay/internal/app/escrow"
	"github.com/wildhash/agentpay/internal/app/treasury"
	"github.com/wildhash/agentpay/internal/domain"
	"github.com/wildhash/agentpay/internal/infra/metrics"
	"github.com/wildhash/agentpay/internal/infra/sqlite"
)

// Check defines a single health check.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// NewChecker creates a health checker with the standard 3 checks.
func NewChecker(db *sqlite.DB, dataDir string, led *escrow.Ledger, treas *treasury.Service) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		checks: []Check{
			{
				Name: "sqlite",
				CheckFn: func(ctx context.Context) error {
					return db.Ping()
				},
			},
			{
				Name: "data_dir",
				CheckFn: func(ctx context.Context) error {
					return checkDataDir(dataDir)
				},
			},
			{
				Name: "escrow_backing",
				CheckFn: func(ctx context.Context) error {
					return checkEscrowBacking(led, treas)
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(0)
		} else {
			s.Healthy = true
			metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(1)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkDataDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Created lazily on first write
		}
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// checkEscrowBacking audits the settlement invariants: every resolved
// task's payout and refund must sum to its amount, and the escrow
// account must hold exactly the sum of all open task amounts. Drift
// means a settlement wrote funds without its task transition, or the
// reverse, and the ledger needs operator attention.
//
// The ledger and the funds account are read at slightly different
// instants, so a transition landing between the two reads skews a
// single sample. A mismatch must persist across retries to count.
func checkEscrowBacking(led *escrow.Ledger, treas *treasury.Service) error {
	// Resolved tasks are immutable, so one pass suffices.
	for _, task := range led.ListTasks(escrow.TaskFilter{Status: domain.StatusResolved}) {
		if task.PayeeAmount+task.RefundAmount != task.Amount {
			return fmt.Errorf("task %d settled %d+%d against amount %d",
				task.ID, task.PayeeAmount, task.RefundAmount, task.Amount)
		}
	}

	var locked, balance int64
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(10 * time.Millisecond)
		}
		locked = led.Overview().EscrowLocked
		var err error
		balance, err = treas.Balance(treasury.AccountEscrow)
		if err != nil {
			return fmt.Errorf("read escrow balance: %w", err)
		}
		if balance == locked {
			return nil
		}
	}
	return fmt.Errorf("escrow account holds %d units, open tasks require %d", balance, locked)
}
