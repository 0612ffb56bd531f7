package domain

// SuccessScore is the score at or above which a resolved task counts
// toward the payee's successful-task tally.
const SuccessScore = 70

// AgentStats is the per-principal reputation aggregate. Creation
// counters move when a task is created; success, earned and spent move
// exactly once when it resolves. Counters only ever increase.
type AgentStats struct {
	Agent           string `json:"agent"`
	TasksCreated    int64  `json:"tasks_created"`    // As payer
	TasksReceived   int64  `json:"tasks_received"`   // As payee
	SuccessfulTasks int64  `json:"successful_tasks"` // Resolved with score >= SuccessScore
	Earned          int64  `json:"earned"`           // Cumulative payee amounts
	Spent           int64  `json:"spent"`            // Cumulative amounts kept by payees
}
