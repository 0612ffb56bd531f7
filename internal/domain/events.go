package domain

import "time"

// EventType names a ledger state transition.
type EventType string

const (
	EventTaskCreated     EventType = "TASK_CREATED"
	EventTaskSubmitted   EventType = "TASK_SUBMITTED"
	EventTaskResolved    EventType = "TASK_RESOLVED"
	EventTaskCancelled   EventType = "TASK_CANCELLED"
	EventTaskTimedOut    EventType = "TASK_TIMED_OUT"
	EventVerifierAdded   EventType = "VERIFIER_ADDED"
	EventVerifierRemoved EventType = "VERIFIER_REMOVED"
	EventConfigUpdated   EventType = "CONFIG_UPDATED"
	EventLedgerPaused    EventType = "LEDGER_PAUSED"
	EventLedgerUnpaused  EventType = "LEDGER_UNPAUSED"
)

// Event describes one successful mutating ledger operation. Exactly one
// event is emitted per mutation; fields not relevant to the event type
// stay at their zero value and are omitted from JSON.
type Event struct {
	ID    uint64    `json:"id"` // Monotonic within a ledger process
	Type  EventType `json:"type"`
	At    time.Time `json:"at"`
	Actor string    `json:"actor,omitempty"` // Principal that triggered the transition

	TaskID          uint64 `json:"task_id,omitempty"`
	Payer           string `json:"payer,omitempty"`
	Payee           string `json:"payee,omitempty"`
	Amount          int64  `json:"amount,omitempty"`
	Description     string `json:"description,omitempty"`
	TimeoutSecs     int64  `json:"timeout_secs,omitempty"`
	DeliverableHash string `json:"deliverable_hash,omitempty"`
	Score           int    `json:"score,omitempty"`
	PayeeAmount     int64  `json:"payee_amount,omitempty"`
	RefundAmount    int64  `json:"refund_amount,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Detail          string `json:"detail,omitempty"` // Admin events: what changed
}
