// Package metrics provides Prometheus metrics for AgentPay.
// Counters, gauges, and histograms for the escrow lifecycle, settlement
// flows, the funds ledger, and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Escrow Lifecycle ───────────────────────────────────────────────────────

// TasksCreated tracks tasks entering escrow.
var TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "agentpay",
	Name:      "tasks_created_total",
	Help:      "Total tasks created.",
})

// TasksSettled tracks tasks leaving escrow by terminal outcome.
var TasksSettled = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agentpay",
	Name:      "tasks_settled_total",
	Help:      "Total tasks reaching a terminal state, by outcome.",
}, []string{"outcome"})

// TasksOpen tracks tasks currently holding escrowed funds.
var TasksOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "agentpay",
	Name:      "tasks_open",
	Help:      "Number of tasks in CREATED or SUBMITTED state.",
})

// ScoreDistribution tracks verifier scores at resolution.
var ScoreDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "agentpay",
	Name:      "resolution_score",
	Help:      "Verifier scores assigned at resolution.",
	Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
})

// ─── Funds ──────────────────────────────────────────────────────────────────

// EscrowLocked tracks units currently held in the escrow pool.
var EscrowLocked = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "agentpay",
	Name:      "escrow_locked_units",
	Help:      "Units currently locked in escrow for open tasks.",
})

// PayoutUnits tracks units paid to payees at settlement.
var PayoutUnits = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "agentpay",
	Name:      "settlement_payout_units_total",
	Help:      "Total units paid out to payees.",
})

// RefundUnits tracks units returned to payers at settlement.
var RefundUnits = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "agentpay",
	Name:      "settlement_refund_units_total",
	Help:      "Total units refunded to payers.",
})

// ─── Events ─────────────────────────────────────────────────────────────────

// EventsEmitted tracks ledger events by type.
var EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agentpay",
	Name:      "events_emitted_total",
	Help:      "Total ledger events emitted, by type.",
}, []string{"type"})

// EventsDropped tracks events discarded because a subscriber lagged.
var EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "agentpay",
	Name:      "events_dropped_total",
	Help:      "Total events dropped on slow subscribers.",
})

// ─── Sweeper ────────────────────────────────────────────────────────────────

// SweeperClaims tracks timeouts claimed by the background sweeper.
var SweeperClaims = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "agentpay",
	Name:      "sweeper_claims_total",
	Help:      "Total expired tasks claimed by the sweeper.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "agentpay",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
