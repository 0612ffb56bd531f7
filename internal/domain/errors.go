package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. Callers match
// them with errors.Is; the ledger wraps them with task context via %w.

var (
	// Task creation errors
	ErrInvalidPayee     = errors.New("payee must be a non-empty principal distinct from the payer")
	ErrInvalidAmount    = errors.New("amount outside the configured task limits")
	ErrEmptyDescription = errors.New("task description is required")

	// Transition errors
	ErrInvalidTaskID        = errors.New("task not found")
	ErrInvalidStatus        = errors.New("operation not allowed in the task's current status")
	ErrEmptyDeliverable     = errors.New("deliverable hash is required")
	ErrTaskAlreadySubmitted = errors.New("task already left the created state")
	ErrTaskNotSubmitted     = errors.New("task has no deliverable awaiting a score")
	ErrTimeoutNotReached    = errors.New("task deadline has not passed yet")
	ErrInvalidScore         = errors.New("score must be between 0 and 100")

	// Authorization errors
	ErrNotPayer    = errors.New("caller is not the task's payer")
	ErrNotPayee    = errors.New("caller is not the task's payee")
	ErrNotVerifier = errors.New("caller is not an authorized verifier")
	ErrNotAdmin    = errors.New("caller is not the ledger admin")

	// Funds errors (surfaced from the treasury)
	ErrInsufficientFunds     = errors.New("insufficient balance to fund the task")
	ErrInsufficientAllowance = errors.New("escrow debit not pre-authorized for this amount")

	// Admin errors
	ErrSystemPaused   = errors.New("ledger is paused for new tasks")
	ErrInvalidTimeout = errors.New("default timeout outside the allowed range")
	ErrInvalidLimits  = errors.New("amount limits must satisfy 0 < min < max")
)
