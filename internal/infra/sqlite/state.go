package sqlite

import (
	"database/sql"
	"time"

	"github.com/wildhash/agentpay/internal/domain"
)

// ─── Verifiers ──────────────────────────────────────────────────────────────

// AddVerifier records an agent as an authorized verifier. Idempotent.
func (d *DB) AddVerifier(agent string) error {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO verifiers (agent, added_at) VALUES (?, ?)`,
		agent, time.Now().Unix(),
	)
	return err
}

// RemoveVerifier revokes an agent's verifier authority. Idempotent.
func (d *DB) RemoveVerifier(agent string) error {
	_, err := d.db.Exec(`DELETE FROM verifiers WHERE agent = ?`, agent)
	return err
}

// ListVerifiers returns all verifier agent IDs in lexical order.
func (d *DB) ListVerifiers() ([]string, error) {
	rows, err := d.db.Query(`SELECT agent FROM verifiers ORDER BY agent ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []string
	for rows.Next() {
		var agent string
		if err := rows.Scan(&agent); err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// ─── Agent Stats ────────────────────────────────────────────────────────────

// UpsertAgentStats inserts or replaces an agent's reputation aggregates.
func (d *DB) UpsertAgentStats(s domain.AgentStats) error {
	_, err := d.db.Exec(
		`INSERT INTO agent_stats (agent, tasks_created, tasks_received, successful_tasks, earned, spent)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(agent) DO UPDATE SET
			tasks_created=excluded.tasks_created,
			tasks_received=excluded.tasks_received,
			successful_tasks=excluded.successful_tasks,
			earned=excluded.earned,
			spent=excluded.spent`,
		s.Agent, s.TasksCreated, s.TasksReceived, s.SuccessfulTasks, s.Earned, s.Spent,
	)
	return err
}

// GetAgentStats retrieves one agent's aggregates.
func (d *DB) GetAgentStats(agent string) (*domain.AgentStats, error) {
	row := d.db.QueryRow(
		`SELECT agent, tasks_created, tasks_received, successful_tasks, earned, spent
		 FROM agent_stats WHERE agent = ?`, agent,
	)
	var s domain.AgentStats
	err := row.Scan(&s.Agent, &s.TasksCreated, &s.TasksReceived, &s.SuccessfulTasks, &s.Earned, &s.Spent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListAgentStats returns aggregates for every known agent in lexical order.
func (d *DB) ListAgentStats() ([]domain.AgentStats, error) {
	rows, err := d.db.Query(
		`SELECT agent, tasks_created, tasks_received, successful_tasks, earned, spent
		 FROM agent_stats ORDER BY agent ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.AgentStats
	for rows.Next() {
		var s domain.AgentStats
		if err := rows.Scan(&s.Agent, &s.TasksCreated, &s.TasksReceived,
			&s.SuccessfulTasks, &s.Earned, &s.Spent); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ─── Settings ───────────────────────────────────────────────────────────────

// SetSetting stores a key-value pair in settings.
func (d *DB) SetSetting(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

// GetSetting retrieves a value from settings.
// Returns "" if key not found.
func (d *DB) GetSetting(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
