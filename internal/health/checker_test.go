package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wildhash/agentpay/internal/app/escrow"
	"github.com/wildhash/agentpay/internal/app/treasury"
	"github.com/wildhash/agentpay/internal/domain"
	"github.com/wildhash/agentpay/internal/infra/sqlite"
)

type nopSink struct{}

func (nopSink) Emit(domain.Event) {}

func newTestEnv(t *testing.T) (*sqlite.DB, *escrow.Ledger, *treasury.Service) {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	treas := treasury.NewService(db)
	led := escrow.NewLedger(escrow.DefaultConfig(), db, treas, nopSink{})
	return db, led, treas
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	db, led, treas := newTestEnv(t)

	c := NewChecker(db, t.TempDir(), led, treas)
	if c == nil {
		t.Fatal("NewChecker() returned nil")
	}
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	db, led, treas := newTestEnv(t)

	c := NewChecker(db, t.TempDir(), led, treas)
	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	db, led, treas := newTestEnv(t)

	c := NewChecker(db, t.TempDir(), led, treas)

	// Before any run there are no statuses, so the daemon reports
	// healthy rather than blocking startup probes.
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run")
	}
}

func TestChecker_EscrowBacking_Balanced(t *testing.T) {
	db, led, treas := newTestEnv(t)

	if err := treas.Fund("alice", 1000, "top-up"); err != nil {
		t.Fatalf("Fund() error: %v", err)
	}
	if err := treas.Approve("alice", 1000); err != nil {
		t.Fatalf("Approve() error: %v", err)
	}
	if _, err := led.CreateTask("alice", "bob", 500, "summarize report", time.Hour); err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}

	c := NewChecker(db, t.TempDir(), led, treas)
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "escrow_backing" && !s.Healthy {
			t.Errorf("escrow_backing should pass with one open task: %s", s.Error)
		}
	}
}

func TestChecker_EscrowBacking_SettledTasks(t *testing.T) {
	db, led, treas := newTestEnv(t)

	if err := treas.Fund("alice", 1000, "top-up"); err != nil {
		t.Fatalf("Fund() error: %v", err)
	}
	if err := treas.Approve("alice", 1000); err != nil {
		t.Fatalf("Approve() error: %v", err)
	}
	task, err := led.CreateTask("alice", "bob", 500, "summarize report", time.Hour)
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}
	if _, err := led.SubmitDeliverable("bob", task.ID, "sha256:abc"); err != nil {
		t.Fatalf("SubmitDeliverable() error: %v", err)
	}
	if err := led.AddVerifier("admin", "carol"); err != nil {
		t.Fatalf("AddVerifier() error: %v", err)
	}
	if _, err := led.ScoreAndResolve("carol", task.ID, 85); err != nil {
		t.Fatalf("ScoreAndResolve() error: %v", err)
	}

	c := NewChecker(db, t.TempDir(), led, treas)
	c.runAll(context.Background())

	// The settled task's 425+75 split passes the audit and the escrow
	// account is back to zero.
	for _, s := range c.Statuses() {
		if s.Name == "escrow_backing" && !s.Healthy {
			t.Errorf("escrow_backing should pass after settlement: %s", s.Error)
		}
	}
}

func TestChecker_EscrowBacking_Drift(t *testing.T) {
	db, led, treas := newTestEnv(t)

	// Money in the escrow account with no open task backing it.
	if err := treas.Fund(treasury.AccountEscrow, 999, "stray credit"); err != nil {
		t.Fatalf("Fund() error: %v", err)
	}

	c := NewChecker(db, t.TempDir(), led, treas)
	c.runAll(context.Background())

	found := false
	for _, s := range c.Statuses() {
		if s.Name == "escrow_backing" {
			found = true
			if s.Healthy {
				t.Error("escrow_backing should fail on unbacked escrow funds")
			}
			if s.Error == "" {
				t.Error("error message should be populated")
			}
		}
	}
	if !found {
		t.Error("escrow_backing check not found in statuses")
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false with drifted escrow")
	}
}

func TestChecker_SQLiteCheck(t *testing.T) {
	db, led, treas := newTestEnv(t)

	c := NewChecker(db, t.TempDir(), led, treas)
	c.runAll(context.Background())

	found := false
	for _, s := range c.Statuses() {
		if s.Name == "sqlite" {
			found = true
			if !s.Healthy {
				t.Error("sqlite check should be healthy")
			}
		}
	}
	if !found {
		t.Error("sqlite check not found in statuses")
	}
}

func TestChecker_DataDir_Missing(t *testing.T) {
	db, led, treas := newTestEnv(t)

	// A data dir that does not exist yet is not a fault.
	c := NewChecker(db, filepath.Join(t.TempDir(), "nonexistent"), led, treas)
	c.runAll(context.Background())

	if !c.IsHealthy() {
		for _, s := range c.Statuses() {
			if !s.Healthy {
				t.Errorf("check %q failed: %s", s.Name, s.Error)
			}
		}
	}
}

func TestChecker_DataDir_FileNotDir(t *testing.T) {
	db, led, treas := newTestEnv(t)

	dataDir := filepath.Join(t.TempDir(), "data")
	os.WriteFile(dataDir, []byte("not a dir"), 0644)

	c := NewChecker(db, dataDir, led, treas)
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "data_dir" && s.Healthy {
			t.Error("data_dir should fail when path is a file")
		}
	}
}

func TestChecker_FailingCheck(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{
				Name: "always_fail",
				CheckFn: func(ctx context.Context) error {
					return os.ErrPermission
				},
			},
		},
	}

	c.runAll(context.Background())

	statuses := c.Statuses()
	if statuses[0].Healthy {
		t.Error("always_fail check should not be healthy")
	}
	if statuses[0].Error == "" {
		t.Error("error message should be populated")
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	db, led, treas := newTestEnv(t)
	c := NewChecker(db, t.TempDir(), led, treas)
	c.runAll(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()

	if len(s1) > 0 {
		s1[0].Healthy = false
		if !s2[0].Healthy {
			t.Error("Statuses() should return a copy, not a reference")
		}
	}
}
