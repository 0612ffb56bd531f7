// Package domain holds the escrow ledger's pure types:
// tasks, agent reputation, events, errors, and the interfaces the
// application layer depends on. No infrastructure imports.
package domain

import (
	"fmt"
	"time"
)

// TaskStatus tracks the escrow lifecycle of a task.
type TaskStatus string

const (
	StatusCreated   TaskStatus = "CREATED"   // Funded, waiting for a deliverable
	StatusSubmitted TaskStatus = "SUBMITTED" // Deliverable in, waiting for a score
	StatusResolved  TaskStatus = "RESOLVED"  // Scored and settled
	StatusCancelled TaskStatus = "CANCELLED" // Payer withdrew before submission
	StatusTimedOut  TaskStatus = "TIMED_OUT" // Deadline passed without a deliverable
)

// ScoreUnset is the sentinel for a task that has not been scored yet.
const ScoreUnset = -1

// Task is a unit of escrowed work-for-payment. The payer funds it at
// creation; the payee submits a deliverable; an authorized verifier's
// score splits the escrowed amount between the two.
type Task struct {
	ID              uint64     `json:"id"`
	Payer           string     `json:"payer"`
	Payee           string     `json:"payee"`
	Amount          int64      `json:"amount"` // Smallest currency unit
	Description     string     `json:"description"`
	DeliverableHash string     `json:"deliverable_hash,omitempty"`
	Score           int        `json:"score"` // ScoreUnset until resolved
	Status          TaskStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	SubmittedAt     time.Time  `json:"submitted_at,omitempty"`
	TimeoutSecs     int64      `json:"timeout_secs"`
	PayeeAmount     int64      `json:"payee_amount"`
	RefundAmount    int64      `json:"refund_amount"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
}

// IsTerminal returns true once the task has settled. Terminal tasks
// never mutate again; payeeAmount+refundAmount == amount holds for them.
func (t *Task) IsTerminal() bool {
	return t.Status == StatusResolved || t.Status == StatusCancelled || t.Status == StatusTimedOut
}

// Timeout returns the task's submission window as a duration.
func (t *Task) Timeout() time.Duration {
	return time.Duration(t.TimeoutSecs) * time.Second
}

// Deadline returns the instant after which an unsubmitted task may be
// timed out.
func (t *Task) Deadline() time.Time {
	return t.CreatedAt.Add(t.Timeout())
}

// Expired reports whether now is strictly past the deadline. The check
// is strict: a submission at exactly the deadline still counts.
func (t *Task) Expired(now time.Time) bool {
	return now.After(t.Deadline())
}

// FormatAmount renders a smallest-unit amount with two decimals,
// e.g. 10000 -> "100.00".
func FormatAmount(units int64) string {
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%02d", sign, units/100, units%100)
}
