package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wildhash/agentpay/internal/domain"
)

// ─── Funds Ledger ───────────────────────────────────────────────────────────

// InsertFundsEntry adds a single funds ledger entry.
func (d *DB) InsertFundsEntry(entry domain.FundsEntry) (int64, error) {
	result, err := d.db.Exec(
		`INSERT INTO funds_ledger (timestamp, type, entry_type, account, amount, task_id, memo, balance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.Unix(), string(entry.Type), string(entry.EntryType),
		entry.Account, entry.Amount, nullTaskID(entry.TaskID), nullStr(entry.Memo), entry.Balance,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ApplyFundsEntries writes a group of matched entries in one
// transaction. A lock or settlement either lands whole or not at all,
// so balances never show one leg of a movement without the other.
func (d *DB) ApplyFundsEntries(entries []domain.FundsEntry) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin funds tx: %w", err)
	}
	defer tx.Rollback()

	for _, entry := range entries {
		_, err := tx.Exec(
			`INSERT INTO funds_ledger (timestamp, type, entry_type, account, amount, task_id, memo, balance)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.Timestamp.Unix(), string(entry.Type), string(entry.EntryType),
			entry.Account, entry.Amount, nullTaskID(entry.TaskID), nullStr(entry.Memo), entry.Balance,
		)
		if err != nil {
			return fmt.Errorf("insert funds entry: %w", err)
		}
	}
	return tx.Commit()
}

// FundsBalance returns the current balance for an account.
func (d *DB) FundsBalance(account string) (int64, error) {
	var balance sql.NullInt64
	err := d.db.QueryRow(
		`SELECT balance FROM funds_ledger WHERE account = ? ORDER BY id DESC LIMIT 1`,
		account,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.Int64, nil
}

// FundsEntries returns recent ledger entries for an account.
func (d *DB) FundsEntries(account string, limit int) ([]domain.FundsEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, timestamp, type, entry_type, account, amount, task_id, memo, balance
		 FROM funds_ledger WHERE account = ? ORDER BY id DESC LIMIT ?`,
		account, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.FundsEntry
	for rows.Next() {
		e, err := scanFundsEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// TaskFundsEntries returns every ledger entry tied to a task, oldest
// first, for settlement audits.
func (d *DB) TaskFundsEntries(taskID uint64) ([]domain.FundsEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, timestamp, type, entry_type, account, amount, task_id, memo, balance
		 FROM funds_ledger WHERE task_id = ? ORDER BY id ASC`, taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.FundsEntry
	for rows.Next() {
		e, err := scanFundsEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanFundsEntry(s scanner) (*domain.FundsEntry, error) {
	var e domain.FundsEntry
	var ts int64
	var taskID sql.NullInt64
	var memo sql.NullString

	err := s.Scan(&e.ID, &ts, &e.Type, &e.EntryType, &e.Account,
		&e.Amount, &taskID, &memo, &e.Balance)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan funds entry: %w", err)
	}

	e.Timestamp = time.Unix(ts, 0)
	if taskID.Valid {
		e.TaskID = uint64(taskID.Int64)
	}
	if memo.Valid {
		e.Memo = memo.String
	}
	return &e, nil
}

// ─── Allowances ─────────────────────────────────────────────────────────────

// SetAllowance stores the remaining spending allowance for an owner.
func (d *DB) SetAllowance(owner string, remaining int64) error {
	_, err := d.db.Exec(
		`INSERT INTO allowances (owner, remaining) VALUES (?, ?)
		 ON CONFLICT(owner) DO UPDATE SET remaining=excluded.remaining`,
		owner, remaining,
	)
	return err
}

// Allowance returns the remaining allowance for an owner.
// Returns 0 if the owner never granted one.
func (d *DB) Allowance(owner string) (int64, error) {
	var remaining int64
	err := d.db.QueryRow(`SELECT remaining FROM allowances WHERE owner = ?`, owner).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return remaining, err
}
