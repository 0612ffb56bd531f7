package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wildhash/agentpay/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	// Check file exists
	if _, err := os.Stat(filepath.Join(dir, "state.db")); os.IsNotExist(err) {
		t.Error("state.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

// ─── Task CRUD ──────────────────────────────────────────────────────────────

func TestInsertTask_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	task := domain.Task{
		ID:          1,
		Payer:       "alice",
		Payee:       "bob",
		Amount:      10000,
		Description: "summarize quarterly report",
		Score:       domain.ScoreUnset,
		Status:      domain.StatusCreated,
		CreatedAt:   time.Unix(1700000000, 0),
		TimeoutSecs: 3600,
	}

	if err := db.InsertTask(task); err != nil {
		t.Fatalf("InsertTask() error: %v", err)
	}

	got, err := db.GetTask(1)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetTask() returned nil")
	}
	if got.Payer != "alice" || got.Payee != "bob" {
		t.Errorf("parties = %s/%s, want alice/bob", got.Payer, got.Payee)
	}
	if got.Amount != 10000 {
		t.Errorf("Amount = %d, want 10000", got.Amount)
	}
	if got.Score != domain.ScoreUnset {
		t.Errorf("Score = %d, want %d", got.Score, domain.ScoreUnset)
	}
	if got.Status != domain.StatusCreated {
		t.Errorf("Status = %s, want %s", got.Status, domain.StatusCreated)
	}
	if !got.SubmittedAt.IsZero() {
		t.Errorf("SubmittedAt = %v, want zero", got.SubmittedAt)
	}
	if got.CreatedAt.Unix() != 1700000000 {
		t.Errorf("CreatedAt = %d, want 1700000000", got.CreatedAt.Unix())
	}
}

func TestUpdateTask_PersistsTransition(t *testing.T) {
	db := newTestDB(t)

	task := domain.Task{
		ID: 7, Payer: "alice", Payee: "bob", Amount: 500,
		Description: "translate doc", Score: domain.ScoreUnset,
		Status: domain.StatusCreated, CreatedAt: time.Unix(1700000000, 0),
		TimeoutSecs: 60,
	}
	if err := db.InsertTask(task); err != nil {
		t.Fatalf("InsertTask() error: %v", err)
	}

	// Submit, then resolve
	task.Status = domain.StatusResolved
	task.DeliverableHash = "sha256:deadbeef"
	task.SubmittedAt = time.Unix(1700000030, 0)
	task.Score = 85
	task.PayeeAmount = 425
	task.RefundAmount = 75
	if err := db.UpdateTask(task); err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}

	got, err := db.GetTask(7)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got.Status != domain.StatusResolved {
		t.Errorf("Status = %s, want %s", got.Status, domain.StatusResolved)
	}
	if got.DeliverableHash != "sha256:deadbeef" {
		t.Errorf("DeliverableHash = %q, want sha256:deadbeef", got.DeliverableHash)
	}
	if got.SubmittedAt.Unix() != 1700000030 {
		t.Errorf("SubmittedAt = %d, want 1700000030", got.SubmittedAt.Unix())
	}
	if got.PayeeAmount != 425 || got.RefundAmount != 75 {
		t.Errorf("split = %d/%d, want 425/75", got.PayeeAmount, got.RefundAmount)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetTask(999)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got != nil {
		t.Error("GetTask() should return nil for nonexistent task")
	}
}

func TestListTasks_OrderedByID(t *testing.T) {
	db := newTestDB(t)

	for _, id := range []uint64{3, 1, 2} {
		if err := db.InsertTask(domain.Task{
			ID: id, Payer: "alice", Payee: "bob", Amount: 100,
			Description: "work", Score: domain.ScoreUnset,
			Status: domain.StatusCreated, CreatedAt: time.Unix(1700000000, 0),
			TimeoutSecs: 60,
		}); err != nil {
			t.Fatalf("InsertTask(%d) error: %v", id, err)
		}
	}

	tasks, err := db.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("len(tasks) = %d, want 3", len(tasks))
	}
	for i, want := range []uint64{1, 2, 3} {
		if tasks[i].ID != want {
			t.Errorf("tasks[%d].ID = %d, want %d", i, tasks[i].ID, want)
		}
	}
}

// ─── Funds Ledger ───────────────────────────────────────────────────────────

func TestFundsBalance_LastEntry(t *testing.T) {
	db := newTestDB(t)

	entries := []domain.FundsEntry{
		{Timestamp: time.Unix(1700000000, 0), Type: domain.TxFund, EntryType: domain.EntryCredit, Account: "alice", Amount: 1000, Balance: 1000},
		{Timestamp: time.Unix(1700000010, 0), Type: domain.TxLock, EntryType: domain.EntryDebit, Account: "alice", Amount: 300, TaskID: 1, Balance: 700},
	}
	for _, e := range entries {
		if _, err := db.InsertFundsEntry(e); err != nil {
			t.Fatalf("InsertFundsEntry() error: %v", err)
		}
	}

	balance, err := db.FundsBalance("alice")
	if err != nil {
		t.Fatalf("FundsBalance() error: %v", err)
	}
	if balance != 700 {
		t.Errorf("FundsBalance(alice) = %d, want 700", balance)
	}
}

func TestFundsBalance_UnknownAccount(t *testing.T) {
	db := newTestDB(t)

	balance, err := db.FundsBalance("nobody")
	if err != nil {
		t.Fatalf("FundsBalance() error: %v", err)
	}
	if balance != 0 {
		t.Errorf("FundsBalance(nobody) = %d, want 0", balance)
	}
}

func TestApplyFundsEntries_WritesAll(t *testing.T) {
	db := newTestDB(t)

	pair := []domain.FundsEntry{
		{Timestamp: time.Unix(1700000000, 0), Type: domain.TxLock, EntryType: domain.EntryDebit, Account: "alice", Amount: 250, TaskID: 4, Memo: "lock", Balance: 750},
		{Timestamp: time.Unix(1700000000, 0), Type: domain.TxLock, EntryType: domain.EntryCredit, Account: "escrow", Amount: 250, TaskID: 4, Memo: "lock", Balance: 250},
	}
	if err := db.ApplyFundsEntries(pair); err != nil {
		t.Fatalf("ApplyFundsEntries() error: %v", err)
	}

	got, err := db.TaskFundsEntries(4)
	if err != nil {
		t.Fatalf("TaskFundsEntries() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(got))
	}
	if got[0].EntryType != domain.EntryDebit || got[1].EntryType != domain.EntryCredit {
		t.Errorf("entry order = %s/%s, want DEBIT/CREDIT", got[0].EntryType, got[1].EntryType)
	}
	if got[0].TaskID != 4 {
		t.Errorf("TaskID = %d, want 4", got[0].TaskID)
	}

	escrow, err := db.FundsBalance("escrow")
	if err != nil {
		t.Fatalf("FundsBalance() error: %v", err)
	}
	if escrow != 250 {
		t.Errorf("FundsBalance(escrow) = %d, want 250", escrow)
	}
}

func TestFundsEntries_Limit(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 5; i++ {
		if _, err := db.InsertFundsEntry(domain.FundsEntry{
			Timestamp: time.Unix(1700000000+int64(i), 0),
			Type:      domain.TxFund, EntryType: domain.EntryCredit,
			Account: "alice", Amount: 100, Balance: int64(100 * (i + 1)),
		}); err != nil {
			t.Fatalf("InsertFundsEntry() error: %v", err)
		}
	}

	entries, err := db.FundsEntries("alice", 3)
	if err != nil {
		t.Fatalf("FundsEntries() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	// Most recent first
	if entries[0].Balance != 500 {
		t.Errorf("entries[0].Balance = %d, want 500", entries[0].Balance)
	}
}

// ─── Allowances ─────────────────────────────────────────────────────────────

func TestAllowance_SetAndGet(t *testing.T) {
	db := newTestDB(t)

	if err := db.SetAllowance("alice", 5000); err != nil {
		t.Fatalf("SetAllowance() error: %v", err)
	}

	got, err := db.Allowance("alice")
	if err != nil {
		t.Fatalf("Allowance() error: %v", err)
	}
	if got != 5000 {
		t.Errorf("Allowance(alice) = %d, want 5000", got)
	}

	// Upsert replaces
	if err := db.SetAllowance("alice", 1200); err != nil {
		t.Fatalf("second SetAllowance() error: %v", err)
	}
	got, err = db.Allowance("alice")
	if err != nil {
		t.Fatalf("Allowance() error: %v", err)
	}
	if got != 1200 {
		t.Errorf("Allowance(alice) = %d, want 1200", got)
	}
}

func TestAllowance_Missing(t *testing.T) {
	db := newTestDB(t)

	got, err := db.Allowance("ghost")
	if err != nil {
		t.Fatalf("Allowance() error: %v", err)
	}
	if got != 0 {
		t.Errorf("Allowance(ghost) = %d, want 0", got)
	}
}

// ─── Verifiers ──────────────────────────────────────────────────────────────

func TestVerifiers_AddRemoveList(t *testing.T) {
	db := newTestDB(t)

	for _, agent := range []string{"carol", "alice", "alice"} {
		if err := db.AddVerifier(agent); err != nil {
			t.Fatalf("AddVerifier(%s) error: %v", agent, err)
		}
	}

	agents, err := db.ListVerifiers()
	if err != nil {
		t.Fatalf("ListVerifiers() error: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("len(agents) = %d, want 2 (add is idempotent)", len(agents))
	}
	if agents[0] != "alice" || agents[1] != "carol" {
		t.Errorf("agents = %v, want [alice carol]", agents)
	}

	if err := db.RemoveVerifier("alice"); err != nil {
		t.Fatalf("RemoveVerifier() error: %v", err)
	}
	agents, err = db.ListVerifiers()
	if err != nil {
		t.Fatalf("ListVerifiers() error: %v", err)
	}
	if len(agents) != 1 || agents[0] != "carol" {
		t.Errorf("agents = %v, want [carol]", agents)
	}
}

// ─── Agent Stats ────────────────────────────────────────────────────────────

func TestAgentStats_Upsert(t *testing.T) {
	db := newTestDB(t)

	stats := domain.AgentStats{
		Agent: "bob", TasksCreated: 1, TasksReceived: 4,
		SuccessfulTasks: 3, Earned: 900, Spent: 100,
	}
	if err := db.UpsertAgentStats(stats); err != nil {
		t.Fatalf("UpsertAgentStats() error: %v", err)
	}

	// Update
	stats.TasksReceived = 5
	stats.Earned = 1200
	if err := db.UpsertAgentStats(stats); err != nil {
		t.Fatalf("second UpsertAgentStats() error: %v", err)
	}

	got, err := db.GetAgentStats("bob")
	if err != nil {
		t.Fatalf("GetAgentStats() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetAgentStats() returned nil")
	}
	if got.TasksReceived != 5 {
		t.Errorf("TasksReceived = %d, want 5", got.TasksReceived)
	}
	if got.Earned != 1200 {
		t.Errorf("Earned = %d, want 1200", got.Earned)
	}
}

func TestAgentStats_NotFound(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetAgentStats("ghost")
	if err != nil {
		t.Fatalf("GetAgentStats() error: %v", err)
	}
	if got != nil {
		t.Error("GetAgentStats() should return nil for unknown agent")
	}
}

func TestListAgentStats_LexicalOrder(t *testing.T) {
	db := newTestDB(t)

	for _, agent := range []string{"carol", "alice", "bob"} {
		if err := db.UpsertAgentStats(domain.AgentStats{Agent: agent, TasksCreated: 1}); err != nil {
			t.Fatalf("UpsertAgentStats(%s) error: %v", agent, err)
		}
	}

	stats, err := db.ListAgentStats()
	if err != nil {
		t.Fatalf("ListAgentStats() error: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("len(stats) = %d, want 3", len(stats))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if stats[i].Agent != want {
			t.Errorf("stats[%d].Agent = %q, want %q", i, stats[i].Agent, want)
		}
	}
}

// ─── Settings ───────────────────────────────────────────────────────────────

func TestSettings_SetAndGet(t *testing.T) {
	db := newTestDB(t)

	if err := db.SetSetting("default_timeout_secs", "3600"); err != nil {
		t.Fatalf("SetSetting() error: %v", err)
	}

	got, err := db.GetSetting("default_timeout_secs")
	if err != nil {
		t.Fatalf("GetSetting() error: %v", err)
	}
	if got != "3600" {
		t.Errorf("GetSetting() = %q, want %q", got, "3600")
	}
}

func TestSettings_Upsert(t *testing.T) {
	db := newTestDB(t)

	if err := db.SetSetting("paused", "false"); err != nil {
		t.Fatalf("first SetSetting() error: %v", err)
	}
	if err := db.SetSetting("paused", "true"); err != nil {
		t.Fatalf("second SetSetting() error: %v", err)
	}

	got, err := db.GetSetting("paused")
	if err != nil {
		t.Fatalf("GetSetting() error: %v", err)
	}
	if got != "true" {
		t.Errorf("GetSetting() = %q, want %q", got, "true")
	}
}

func TestSettings_NotFound(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetSetting("missing")
	if err != nil {
		t.Fatalf("GetSetting() error: %v", err)
	}
	if got != "" {
		t.Errorf("GetSetting(missing) = %q, want empty", got)
	}
}
