package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wildhash/agentpay/internal/domain"
)

// ─── Task Repository ────────────────────────────────────────────────────────

// InsertTask creates a new task record.
func (d *DB) InsertTask(task domain.Task) error {
	_, err := d.db.Exec(
		`INSERT INTO tasks (id, payer, payee, amount, description, deliverable_hash, score,
		                    status, created_at, submitted_at, timeout_secs, payee_amount, refund_amount, cancel_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Payer, task.Payee, task.Amount, task.Description,
		nullStr(task.DeliverableHash), task.Score, string(task.Status),
		task.CreatedAt.Unix(), nullableUnix(task.SubmittedAt), task.TimeoutSecs,
		task.PayeeAmount, task.RefundAmount, nullStr(task.CancelReason),
	)
	return err
}

// UpdateTask overwrites the stored record with the task's current state.
// The ledger calls this after every transition; the in-memory copy is
// authoritative, so the whole mutable tail is written at once.
func (d *DB) UpdateTask(task domain.Task) error {
	_, err := d.db.Exec(
		`UPDATE tasks SET deliverable_hash = ?, score = ?, status = ?, submitted_at = ?,
		                  payee_amount = ?, refund_amount = ?, cancel_reason = ?
		 WHERE id = ?`,
		nullStr(task.DeliverableHash), task.Score, string(task.Status),
		nullableUnix(task.SubmittedAt), task.PayeeAmount, task.RefundAmount,
		nullStr(task.CancelReason), task.ID,
	)
	return err
}

// GetTask retrieves a task by ID.
func (d *DB) GetTask(id uint64) (*domain.Task, error) {
	row := d.db.QueryRow(
		`SELECT id, payer, payee, amount, description, deliverable_hash, score,
		        status, created_at, submitted_at, timeout_secs, payee_amount, refund_amount, cancel_reason
		 FROM tasks WHERE id = ?`, id,
	)
	return scanTask(row)
}

// ListTasks returns every stored task ordered by ID ascending, the
// order the ledger replays them on restart.
func (d *DB) ListTasks() ([]domain.Task, error) {
	rows, err := d.db.Query(
		`SELECT id, payer, payee, amount, description, deliverable_hash, score,
		        status, created_at, submitted_at, timeout_secs, payee_amount, refund_amount, cancel_reason
		 FROM tasks ORDER BY id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var createdAt int64
	var submittedAt sql.NullInt64
	var deliverable, reason sql.NullString

	err := s.Scan(&t.ID, &t.Payer, &t.Payee, &t.Amount, &t.Description,
		&deliverable, &t.Score, &t.Status, &createdAt, &submittedAt,
		&t.TimeoutSecs, &t.PayeeAmount, &t.RefundAmount, &reason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	t.CreatedAt = time.Unix(createdAt, 0)
	if submittedAt.Valid {
		t.SubmittedAt = time.Unix(submittedAt.Int64, 0)
	}
	if deliverable.Valid {
		t.DeliverableHash = deliverable.String
	}
	if reason.Valid {
		t.CancelReason = reason.String
	}
	return &t, nil
}

func scanTaskRows(rows *sql.Rows) (*domain.Task, error) {
	return scanTask(rows)
}
