// Package sqlite provides SQLite-based persistent storage for AgentPay.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Escrow tasks. id is assigned by the in-memory ledger, not
		// AUTOINCREMENT, so restored state keeps its original IDs.
		`CREATE TABLE IF NOT EXISTS tasks (
			id               INTEGER PRIMARY KEY,
			payer            TEXT NOT NULL,
			payee            TEXT NOT NULL,
			amount           INTEGER NOT NULL,
			description      TEXT NOT NULL,
			deliverable_hash TEXT,
			score            INTEGER NOT NULL DEFAULT -1,
			status           TEXT NOT NULL,
			created_at       INTEGER NOT NULL,
			submitted_at     INTEGER,
			timeout_secs     INTEGER NOT NULL,
			payee_amount     INTEGER NOT NULL DEFAULT 0,
			refund_amount    INTEGER NOT NULL DEFAULT 0,
			cancel_reason    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_payer ON tasks(payer)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_payee ON tasks(payee)`,

		// Funds ledger (double-entry bookkeeping). Every movement is a
		// matched DEBIT/CREDIT pair; balance is the running balance of
		// the account after the entry.
		`CREATE TABLE IF NOT EXISTS funds_ledger (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			type       TEXT NOT NULL,
			entry_type TEXT NOT NULL,
			account    TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			task_id    INTEGER,
			memo       TEXT,
			balance    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_funds_account ON funds_ledger(account, id)`,
		`CREATE INDEX IF NOT EXISTS idx_funds_task ON funds_ledger(task_id)`,

		// Spending allowances granted to the escrow service
		`CREATE TABLE IF NOT EXISTS allowances (
			owner     TEXT PRIMARY KEY,
			remaining INTEGER NOT NULL
		)`,

		// Agents authorized to score and resolve tasks
		`CREATE TABLE IF NOT EXISTS verifiers (
			agent    TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL
		)`,

		// Per-agent reputation aggregates
		`CREATE TABLE IF NOT EXISTS agent_stats (
			agent            TEXT PRIMARY KEY,
			tasks_created    INTEGER NOT NULL DEFAULT 0,
			tasks_received   INTEGER NOT NULL DEFAULT 0,
			successful_tasks INTEGER NOT NULL DEFAULT 0,
			earned           INTEGER NOT NULL DEFAULT 0,
			spent            INTEGER NOT NULL DEFAULT 0
		)`,

		// Admin-set configuration (default timeout, amount limits, pause flag)
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTaskID(id uint64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}
