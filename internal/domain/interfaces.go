package domain

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; the application layer depends on them.

// LedgerStore abstracts persistent storage of ledger state so the
// escrow core survives restarts. Implemented by infra/sqlite.DB.
type LedgerStore interface {
	// Tasks
	InsertTask(Task) error
	UpdateTask(Task) error
	ListTasks() ([]Task, error)

	// Verifier authority
	AddVerifier(agent string) error
	RemoveVerifier(agent string) error
	ListVerifiers() ([]string, error)

	// Reputation aggregates
	UpsertAgentStats(AgentStats) error
	ListAgentStats() ([]AgentStats, error)

	// Admin-set configuration (key/value)
	SetSetting(key, value string) error
	GetSetting(key string) (string, error)
}

// FundsProvider abstracts the funds-transfer collaborator. Lock is the
// only call that may fail for business reasons; Release settles a task
// in one atomic move and must be called at most once per task.
type FundsProvider interface {
	// Lock debits owner's balance into escrow for a task. Fails with
	// ErrInsufficientFunds or ErrInsufficientAllowance.
	Lock(owner string, taskID uint64, amount int64) error

	// Release pays payeeAmount to the payee and refundAmount back to
	// the payer out of escrow. Zero transfers are skipped.
	Release(taskID uint64, payee string, payeeAmount int64, payer string, refundAmount int64, memo string) error

	// Balance returns the account's spendable balance.
	Balance(account string) (int64, error)
}

// EventSink receives one event per successful mutating ledger
// operation. Implementations must not block.
type EventSink interface {
	Emit(Event)
}
