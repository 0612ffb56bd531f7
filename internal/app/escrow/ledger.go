// Package escrow implements the AgentPay escrow ledger: the task
// registry, its state machine, and settlement.
//
// How a task moves through escrow:
//  1. A payer creates a task; its amount is locked from the payer's
//     balance into the escrow pool
//  2. The payee submits a deliverable hash before the deadline
//  3. An authorized verifier scores the work 0-100; the locked amount
//     splits proportionally between payee and payer
//  4. If the payee never delivers, the payer cancels or claims the
//     timeout and the full amount comes back
//
// Every mutating operation is serialized behind one lock, so observers
// never see a task between states or funds counted twice.
package escrow

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wildhash/agentpay/internal/domain"
	"github.com/wildhash/agentpay/internal/infra/metrics"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config configures the ledger.
type Config struct {
	Admin          string        // Principal allowed to run admin operations
	DefaultTimeout time.Duration // Deadline for tasks created without one
	MinTaskAmount  int64         // Smallest acceptable task amount
	MaxTaskAmount  int64         // Largest acceptable task amount
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Admin:          "admin",
		DefaultTimeout: 24 * time.Hour,
		MinTaskAmount:  1,
		MaxTaskAmount:  1_000_000_000,
	}
}

// Bounds for admin-tunable settings.
const (
	minDefaultTimeout = time.Minute
	maxDefaultTimeout = 30 * 24 * time.Hour

	// Amounts stay below MaxInt64/100 so Split's multiply cannot overflow.
	maxAmountCap = math.MaxInt64 / 100
)

// Setting keys persisted through the store.
const (
	settingDefaultTimeout = "default_timeout_secs"
	settingMinAmount      = "min_task_amount"
	settingMaxAmount      = "max_task_amount"
	settingPaused         = "paused"
)

// ─── Ledger ─────────────────────────────────────────────────────────────────

// Ledger owns every escrow task and serializes all transitions. The
// in-memory registry is authoritative; the store is a write-behind
// mirror used to survive restarts.
type Ledger struct {
	mu     sync.RWMutex
	config Config

	tasks     map[uint64]*domain.Task
	nextID    uint64
	verifiers map[string]bool
	stats     map[string]*domain.AgentStats

	paused         bool
	defaultTimeout time.Duration
	minAmount      int64
	maxAmount      int64

	store domain.LedgerStore
	funds domain.FundsProvider
	sink  domain.EventSink

	nextEventID uint64
	now         func() time.Time
}

// NewLedger creates an empty ledger. Call Restore to reload persisted
// state before serving traffic.
func NewLedger(cfg Config, store domain.LedgerStore, funds domain.FundsProvider, sink domain.EventSink) *Ledger {
	return &Ledger{
		config:         cfg,
		tasks:          make(map[uint64]*domain.Task),
		nextID:         1,
		verifiers:      make(map[string]bool),
		stats:          make(map[string]*domain.AgentStats),
		defaultTimeout: cfg.DefaultTimeout,
		minAmount:      cfg.MinTaskAmount,
		maxAmount:      cfg.MaxTaskAmount,
		store:          store,
		funds:          funds,
		sink:           sink,
		now:            time.Now,
	}
}

// Restore loads tasks, verifiers, stats, and admin settings from the
// store. Terminal tasks are kept for queries; open tasks resume their
// original deadlines.
func (l *Ledger) Restore() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tasks, err := l.store.ListTasks()
	if err != nil {
		return fmt.Errorf("restore tasks: %w", err)
	}
	var open int64
	var locked int64
	for i := range tasks {
		t := tasks[i]
		l.tasks[t.ID] = &t
		if t.ID >= l.nextID {
			l.nextID = t.ID + 1
		}
		if !t.IsTerminal() {
			open++
			locked += t.Amount
		}
	}
	metrics.TasksOpen.Set(float64(open))
	metrics.EscrowLocked.Set(float64(locked))

	agents, err := l.store.ListVerifiers()
	if err != nil {
		return fmt.Errorf("restore verifiers: %w", err)
	}
	for _, agent := range agents {
		l.verifiers[agent] = true
	}

	stats, err := l.store.ListAgentStats()
	if err != nil {
		return fmt.Errorf("restore agent stats: %w", err)
	}
	for i := range stats {
		s := stats[i]
		l.stats[s.Agent] = &s
	}

	if err := l.restoreSettings(); err != nil {
		return err
	}

	log.Printf("[escrow] restored %d tasks (%d open), %d verifiers, %d agents",
		len(tasks), open, len(agents), len(stats))
	return nil
}

func (l *Ledger) restoreSettings() error {
	if v, err := l.store.GetSetting(settingDefaultTimeout); err != nil {
		return fmt.Errorf("restore settings: %w", err)
	} else if v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", settingDefaultTimeout, err)
		}
		l.defaultTimeout = time.Duration(secs) * time.Second
	}

	if v, err := l.store.GetSetting(settingMinAmount); err != nil {
		return fmt.Errorf("restore settings: %w", err)
	} else if v != "" {
		min, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", settingMinAmount, err)
		}
		l.minAmount = min
	}

	if v, err := l.store.GetSetting(settingMaxAmount); err != nil {
		return fmt.Errorf("restore settings: %w", err)
	} else if v != "" {
		max, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", settingMaxAmount, err)
		}
		l.maxAmount = max
	}

	if v, err := l.store.GetSetting(settingPaused); err != nil {
		return fmt.Errorf("restore settings: %w", err)
	} else if v != "" {
		paused, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", settingPaused, err)
		}
		l.paused = paused
	}
	return nil
}

// ─── Task Lifecycle ─────────────────────────────────────────────────────────

// CreateTask locks amount from the payer's balance into escrow and
// registers a new task. A timeout of zero or less means the ledger's
// default deadline.
func (l *Ledger) CreateTask(payer, payee string, amount int64, description string, timeout time.Duration) (*domain.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return nil, domain.ErrSystemPaused
	}
	if payer == "" || payee == "" || payee == payer {
		return nil, domain.ErrInvalidPayee
	}
	if amount < l.minAmount || amount > l.maxAmount {
		return nil, fmt.Errorf("%w: %d outside [%d, %d]", domain.ErrInvalidAmount, amount, l.minAmount, l.maxAmount)
	}
	if strings.TrimSpace(description) == "" {
		return nil, domain.ErrEmptyDescription
	}
	if timeout <= 0 {
		timeout = l.defaultTimeout
	}

	// The funds lock is the commit point: if it fails nothing happened.
	id := l.nextID
	if err := l.funds.Lock(payer, id, amount); err != nil {
		return nil, err
	}
	l.nextID++

	task := &domain.Task{
		ID:          id,
		Payer:       payer,
		Payee:       payee,
		Amount:      amount,
		Description: description,
		Score:       domain.ScoreUnset,
		Status:      domain.StatusCreated,
		CreatedAt:   l.now(),
		TimeoutSecs: int64(timeout / time.Second),
	}
	l.tasks[id] = task

	payerStats := l.bumpStats(payer)
	payerStats.TasksCreated++
	payeeStats := l.bumpStats(payee)
	payeeStats.TasksReceived++

	if err := l.store.InsertTask(*task); err != nil {
		log.Printf("[escrow] WARNING: persist task %d: %v", id, err)
	}
	l.persistStats(payerStats, payeeStats)

	metrics.TasksCreated.Inc()
	metrics.TasksOpen.Inc()
	metrics.EscrowLocked.Add(float64(amount))

	l.emit(domain.Event{
		Type:        domain.EventTaskCreated,
		Actor:       payer,
		TaskID:      id,
		Payer:       payer,
		Payee:       payee,
		Amount:      amount,
		Description: description,
		TimeoutSecs: task.TimeoutSecs,
	})
	return copyTask(task), nil
}

// SubmitDeliverable records the payee's work on an open task. A
// submission after the deadline does not fail: the task times out
// instead, the full amount refunds to the payer, and the deliverable
// is discarded. Callers distinguish the two outcomes by the returned
// task's status.
func (l *Ledger) SubmitDeliverable(caller string, taskID uint64, deliverableHash string) (*domain.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	task, ok := l.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", taskID, domain.ErrInvalidTaskID)
	}
	if caller != task.Payee {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotPayee)
	}
	if task.Status != domain.StatusCreated {
		return nil, fmt.Errorf("task %d is %s: %w", taskID, task.Status, domain.ErrTaskAlreadySubmitted)
	}

	// Deadline first: late work is redirected to timeout before the
	// deliverable itself is even looked at.
	if task.Expired(l.now()) {
		if err := l.timeOutLocked(task, caller, "late submission"); err != nil {
			return nil, err
		}
		return copyTask(task), nil
	}

	if deliverableHash == "" {
		return nil, domain.ErrEmptyDeliverable
	}

	task.DeliverableHash = deliverableHash
	task.SubmittedAt = l.now()
	task.Status = domain.StatusSubmitted

	if err := l.store.UpdateTask(*task); err != nil {
		log.Printf("[escrow] WARNING: persist task %d: %v", taskID, err)
	}

	l.emit(domain.Event{
		Type:            domain.EventTaskSubmitted,
		Actor:           caller,
		TaskID:          taskID,
		Payer:           task.Payer,
		Payee:           task.Payee,
		DeliverableHash: deliverableHash,
	})
	return copyTask(task), nil
}

// CancelTask aborts an open task and refunds the full amount to the
// payer. Only the payer may cancel, and only before submission.
func (l *Ledger) CancelTask(caller string, taskID uint64, reason string) (*domain.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	task, ok := l.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", taskID, domain.ErrInvalidTaskID)
	}
	if caller != task.Payer {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotPayer)
	}
	if task.Status != domain.StatusCreated {
		return nil, fmt.Errorf("task %d is %s: %w", taskID, task.Status, domain.ErrTaskAlreadySubmitted)
	}

	memo := fmt.Sprintf("task %d cancelled", taskID)
	if err := l.funds.Release(taskID, task.Payee, 0, task.Payer, task.Amount, memo); err != nil {
		return nil, fmt.Errorf("release funds: %w", err)
	}

	task.Status = domain.StatusCancelled
	task.RefundAmount = task.Amount
	task.CancelReason = reason

	if err := l.store.UpdateTask(*task); err != nil {
		log.Printf("[escrow] WARNING: persist task %d: %v", taskID, err)
	}

	metrics.TasksSettled.WithLabelValues("cancelled").Inc()
	metrics.TasksOpen.Dec()
	metrics.EscrowLocked.Sub(float64(task.Amount))
	metrics.RefundUnits.Add(float64(task.Amount))

	l.emit(domain.Event{
		Type:         domain.EventTaskCancelled,
		Actor:        caller,
		TaskID:       taskID,
		Payer:        task.Payer,
		Payee:        task.Payee,
		RefundAmount: task.Amount,
		Reason:       reason,
	})
	return copyTask(task), nil
}

// ClaimTimeout lets the payer reclaim funds from a task whose deadline
// passed without a submission.
func (l *Ledger) ClaimTimeout(caller string, taskID uint64) (*domain.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	task, ok := l.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", taskID, domain.ErrInvalidTaskID)
	}
	if caller != task.Payer {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotPayer)
	}
	if task.Status != domain.StatusCreated {
		return nil, fmt.Errorf("task %d is %s: %w", taskID, task.Status, domain.ErrTaskAlreadySubmitted)
	}
	if !task.Expired(l.now()) {
		return nil, fmt.Errorf("task %d deadline %s: %w", taskID, task.Deadline().Format(time.RFC3339), domain.ErrTimeoutNotReached)
	}

	if err := l.timeOutLocked(task, caller, "deadline claimed"); err != nil {
		return nil, err
	}
	return copyTask(task), nil
}

// timeOutLocked moves an open task to TIMED_OUT with a full refund.
// Caller holds l.mu and has verified status is CREATED.
func (l *Ledger) timeOutLocked(task *domain.Task, actor, reason string) error {
	memo := fmt.Sprintf("task %d timed out", task.ID)
	if err := l.funds.Release(task.ID, task.Payee, 0, task.Payer, task.Amount, memo); err != nil {
		return fmt.Errorf("release funds: %w", err)
	}

	task.Status = domain.StatusTimedOut
	task.RefundAmount = task.Amount

	if err := l.store.UpdateTask(*task); err != nil {
		log.Printf("[escrow] WARNING: persist task %d: %v", task.ID, err)
	}

	metrics.TasksSettled.WithLabelValues("timed_out").Inc()
	metrics.TasksOpen.Dec()
	metrics.EscrowLocked.Sub(float64(task.Amount))
	metrics.RefundUnits.Add(float64(task.Amount))

	l.emit(domain.Event{
		Type:         domain.EventTaskTimedOut,
		Actor:        actor,
		TaskID:       task.ID,
		Payer:        task.Payer,
		Payee:        task.Payee,
		RefundAmount: task.Amount,
		Reason:       reason,
	})
	return nil
}

// ScoreAndResolve settles a submitted task. The verifier's score
// splits the locked amount: amount*score/100 to the payee, the
// remainder back to the payer. Each task settles exactly once.
func (l *Ledger) ScoreAndResolve(caller string, taskID uint64, score int) (*domain.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Authority is checked before the task lookup: an unauthorized
	// caller learns nothing about which task IDs exist.
	if !l.verifiers[caller] {
		return nil, fmt.Errorf("%s: %w", caller, domain.ErrNotVerifier)
	}

	task, ok := l.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", taskID, domain.ErrInvalidTaskID)
	}
	if task.Status != domain.StatusSubmitted {
		return nil, fmt.Errorf("task %d is %s: %w", taskID, task.Status, domain.ErrTaskNotSubmitted)
	}
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("%d: %w", score, domain.ErrInvalidScore)
	}

	payeeAmount, refundAmount := Split(task.Amount, score)

	memo := fmt.Sprintf("task %d scored %d", taskID, score)
	if err := l.funds.Release(taskID, task.Payee, payeeAmount, task.Payer, refundAmount, memo); err != nil {
		return nil, fmt.Errorf("release funds: %w", err)
	}

	task.Score = score
	task.Status = domain.StatusResolved
	task.PayeeAmount = payeeAmount
	task.RefundAmount = refundAmount

	payeeStats := l.bumpStats(task.Payee)
	payeeStats.Earned += payeeAmount
	if score >= domain.SuccessScore {
		payeeStats.SuccessfulTasks++
	}
	payerStats := l.bumpStats(task.Payer)
	payerStats.Spent += payeeAmount

	if err := l.store.UpdateTask(*task); err != nil {
		log.Printf("[escrow] WARNING: persist task %d: %v", taskID, err)
	}
	l.persistStats(payeeStats, payerStats)

	metrics.TasksSettled.WithLabelValues("resolved").Inc()
	metrics.TasksOpen.Dec()
	metrics.EscrowLocked.Sub(float64(task.Amount))
	metrics.ScoreDistribution.Observe(float64(score))
	metrics.PayoutUnits.Add(float64(payeeAmount))
	metrics.RefundUnits.Add(float64(refundAmount))

	l.emit(domain.Event{
		Type:         domain.EventTaskResolved,
		Actor:        caller,
		TaskID:       taskID,
		Payer:        task.Payer,
		Payee:        task.Payee,
		Score:        score,
		PayeeAmount:  payeeAmount,
		RefundAmount: refundAmount,
	})
	return copyTask(task), nil
}

// ─── Queries ────────────────────────────────────────────────────────────────

// TaskFilter narrows ListTasks results. Zero values match everything.
type TaskFilter struct {
	Status domain.TaskStatus // Exact status match
	Agent  string            // Matches tasks where the agent is payer or payee
}

func (f TaskFilter) matches(t *domain.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Agent != "" && t.Payer != f.Agent && t.Payee != f.Agent {
		return false
	}
	return true
}

// GetTask returns a snapshot of one task.
func (l *Ledger) GetTask(taskID uint64) (*domain.Task, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	task, ok := l.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", taskID, domain.ErrInvalidTaskID)
	}
	return copyTask(task), nil
}

// ListTasks returns matching tasks in creation order.
func (l *Ledger) ListTasks(filter TaskFilter) []domain.Task {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var results []domain.Task
	for _, t := range l.tasks {
		if filter.matches(t) {
			results = append(results, *t)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
	return results
}

// ExpiredTasks returns open tasks whose deadline has passed. The
// sweeper feeds these back through ClaimTimeout.
func (l *Ledger) ExpiredTasks() []domain.Task {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := l.now()
	var results []domain.Task
	for _, t := range l.tasks {
		if t.Status == domain.StatusCreated && t.Expired(now) {
			results = append(results, *t)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
	return results
}

// AgentStats returns one agent's reputation aggregates. Agents with no
// history have all-zero stats.
func (l *Ledger) AgentStats(agent string) domain.AgentStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if s, ok := l.stats[agent]; ok {
		return *s
	}
	return domain.AgentStats{Agent: agent}
}

// ListAgentStats returns aggregates for every known agent in lexical order.
func (l *Ledger) ListAgentStats() []domain.AgentStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var results []domain.AgentStats
	for _, s := range l.stats {
		results = append(results, *s)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Agent < results[j].Agent
	})
	return results
}

// IsVerifier reports whether an agent holds verifier authority.
func (l *Ledger) IsVerifier(agent string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verifiers[agent]
}

// Verifiers returns all verifier agent IDs in lexical order.
func (l *Ledger) Verifiers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	agents := make([]string, 0, len(l.verifiers))
	for agent := range l.verifiers {
		agents = append(agents, agent)
	}
	sort.Strings(agents)
	return agents
}

// Overview holds aggregate ledger statistics.
type Overview struct {
	TasksTotal         int   `json:"tasks_total"`
	TasksOpen          int   `json:"tasks_open"`
	TasksResolved      int   `json:"tasks_resolved"`
	TasksCancelled     int   `json:"tasks_cancelled"`
	TasksTimedOut      int   `json:"tasks_timed_out"`
	EscrowLocked       int64 `json:"escrow_locked"`
	Verifiers          int   `json:"verifiers"`
	Paused             bool  `json:"paused"`
	DefaultTimeoutSecs int64 `json:"default_timeout_secs"`
	MinTaskAmount      int64 `json:"min_task_amount"`
	MaxTaskAmount      int64 `json:"max_task_amount"`
}

// Overview returns aggregate ledger statistics.
func (l *Ledger) Overview() Overview {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ov := Overview{
		TasksTotal:         len(l.tasks),
		Verifiers:          len(l.verifiers),
		Paused:             l.paused,
		DefaultTimeoutSecs: int64(l.defaultTimeout / time.Second),
		MinTaskAmount:      l.minAmount,
		MaxTaskAmount:      l.maxAmount,
	}
	for _, t := range l.tasks {
		switch t.Status {
		case domain.StatusResolved:
			ov.TasksResolved++
		case domain.StatusCancelled:
			ov.TasksCancelled++
		case domain.StatusTimedOut:
			ov.TasksTimedOut++
		default:
			ov.TasksOpen++
			ov.EscrowLocked += t.Amount
		}
	}
	return ov
}

// ─── Administration ─────────────────────────────────────────────────────────

// AddVerifier grants scoring authority to an agent. Idempotent: adding
// an existing verifier succeeds without emitting an event.
func (l *Ledger) AddVerifier(caller, agent string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.config.Admin {
		return fmt.Errorf("%s: %w", caller, domain.ErrNotAdmin)
	}
	if agent == "" {
		return fmt.Errorf("verifier agent id is required")
	}
	if l.verifiers[agent] {
		return nil
	}

	l.verifiers[agent] = true
	if err := l.store.AddVerifier(agent); err != nil {
		log.Printf("[escrow] WARNING: persist verifier %s: %v", agent, err)
	}

	l.emit(domain.Event{Type: domain.EventVerifierAdded, Actor: caller, Detail: agent})
	return nil
}

// RemoveVerifier revokes scoring authority. Idempotent.
func (l *Ledger) RemoveVerifier(caller, agent string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.config.Admin {
		return fmt.Errorf("%s: %w", caller, domain.ErrNotAdmin)
	}
	if !l.verifiers[agent] {
		return nil
	}

	delete(l.verifiers, agent)
	if err := l.store.RemoveVerifier(agent); err != nil {
		log.Printf("[escrow] WARNING: persist verifier %s: %v", agent, err)
	}

	l.emit(domain.Event{Type: domain.EventVerifierRemoved, Actor: caller, Detail: agent})
	return nil
}

// SetDefaultTimeout changes the deadline applied to tasks created
// without an explicit timeout. Open tasks keep their deadlines.
func (l *Ledger) SetDefaultTimeout(caller string, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.config.Admin {
		return fmt.Errorf("%s: %w", caller, domain.ErrNotAdmin)
	}
	if d < minDefaultTimeout || d > maxDefaultTimeout {
		return fmt.Errorf("%s outside [%s, %s]: %w", d, minDefaultTimeout, maxDefaultTimeout, domain.ErrInvalidTimeout)
	}

	l.defaultTimeout = d
	l.persistSetting(settingDefaultTimeout, strconv.FormatInt(int64(d/time.Second), 10))

	l.emit(domain.Event{
		Type:   domain.EventConfigUpdated,
		Actor:  caller,
		Detail: fmt.Sprintf("%s=%d", settingDefaultTimeout, int64(d/time.Second)),
	})
	return nil
}

// SetAmountLimits changes the acceptable task amount range. Open tasks
// created under the old limits are unaffected.
func (l *Ledger) SetAmountLimits(caller string, min, max int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.config.Admin {
		return fmt.Errorf("%s: %w", caller, domain.ErrNotAdmin)
	}
	if min <= 0 || min >= max || max > maxAmountCap {
		return fmt.Errorf("[%d, %d]: %w", min, max, domain.ErrInvalidLimits)
	}

	l.minAmount = min
	l.maxAmount = max
	l.persistSetting(settingMinAmount, strconv.FormatInt(min, 10))
	l.persistSetting(settingMaxAmount, strconv.FormatInt(max, 10))

	l.emit(domain.Event{
		Type:   domain.EventConfigUpdated,
		Actor:  caller,
		Detail: fmt.Sprintf("%s=%d %s=%d", settingMinAmount, min, settingMaxAmount, max),
	})
	return nil
}

// Pause stops task creation. Submissions, cancellations, timeout
// claims, and resolutions keep working so open tasks can drain.
func (l *Ledger) Pause(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.config.Admin {
		return fmt.Errorf("%s: %w", caller, domain.ErrNotAdmin)
	}
	if l.paused {
		return nil
	}

	l.paused = true
	l.persistSetting(settingPaused, "true")
	l.emit(domain.Event{Type: domain.EventLedgerPaused, Actor: caller})
	return nil
}

// Unpause re-enables task creation.
func (l *Ledger) Unpause(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.config.Admin {
		return fmt.Errorf("%s: %w", caller, domain.ErrNotAdmin)
	}
	if !l.paused {
		return nil
	}

	l.paused = false
	l.persistSetting(settingPaused, "false")
	l.emit(domain.Event{Type: domain.EventLedgerUnpaused, Actor: caller})
	return nil
}

// Paused reports whether task creation is paused.
func (l *Ledger) Paused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paused
}

// Admin returns the configured admin principal.
func (l *Ledger) Admin() string {
	return l.config.Admin
}

// ─── Internals ──────────────────────────────────────────────────────────────

// bumpStats returns the agent's stats record, creating it on first use.
// Caller holds l.mu.
func (l *Ledger) bumpStats(agent string) *domain.AgentStats {
	s, ok := l.stats[agent]
	if !ok {
		s = &domain.AgentStats{Agent: agent}
		l.stats[agent] = s
	}
	return s
}

func (l *Ledger) persistStats(stats ...*domain.AgentStats) {
	for _, s := range stats {
		if err := l.store.UpsertAgentStats(*s); err != nil {
			log.Printf("[escrow] WARNING: persist stats for %s: %v", s.Agent, err)
		}
	}
}

func (l *Ledger) persistSetting(key, value string) {
	if err := l.store.SetSetting(key, value); err != nil {
		log.Printf("[escrow] WARNING: persist setting %s: %v", key, err)
	}
}

// emit stamps and delivers an event. Caller holds l.mu, so event IDs
// are strictly ordered with the transitions they describe.
func (l *Ledger) emit(ev domain.Event) {
	l.nextEventID++
	ev.ID = l.nextEventID
	ev.At = l.now()
	metrics.EventsEmitted.WithLabelValues(string(ev.Type)).Inc()
	if l.sink != nil {
		l.sink.Emit(ev)
	}
}

func copyTask(t *domain.Task) *domain.Task {
	cp := *t
	return &cp
}
