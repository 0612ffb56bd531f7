// Package api provides the HTTP server for the AgentPay daemon.
// It exposes the escrow lifecycle, agent funds and reputation queries,
// the event feed, and the admin surface.
//
// Callers identify themselves with the X-Agent-ID header. The header
// is a declared principal, not a verified one; all authority decisions
// happen in the ledger against that declared identity.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wildhash/agentpay/internal/app/escrow"
	"github.com/wildhash/agentpay/internal/app/treasury"
	"github.com/wildhash/agentpay/internal/domain"
	"github.com/wildhash/agentpay/internal/health"
	"github.com/wildhash/agentpay/internal/infra/events"
)

// Server is the AgentPay HTTP API server.
type Server struct {
	ledger         *escrow.Ledger
	treasury       *treasury.Service
	bus            *events.Bus
	checker        *health.Checker // nil until the daemon wires it
	version        string
	instanceID     string
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(ledger *escrow.Ledger, treas *treasury.Service, bus *events.Bus) *Server {
	return &Server{ledger: ledger, treasury: treas, bus: bus, version: "dev"}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetChecker wires the health checker into /health.
func (s *Server) SetChecker(c *health.Checker) { s.checker = c }

// SetVersion sets the version string reported by /api/version.
func (s *Server) SetVersion(v string) { s.version = v }

// SetInstanceID sets the daemon identity reported by /api/version.
func (s *Server) SetInstanceID(id string) { s.instanceID = id }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Group(func(r chi.Router) {
		// Escrow operations are quick; anything slower is stuck.
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/health", s.handleHealth)
		r.Get("/api/version", s.handleVersion)

		r.Route("/v1", func(r chi.Router) {
			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", s.handleCreateTask)
				r.Get("/", s.handleListTasks)
				r.Get("/{id}", s.handleGetTask)
				r.Post("/{id}/deliverable", s.handleSubmitDeliverable)
				r.Post("/{id}/resolve", s.handleResolveTask)
				r.Post("/{id}/cancel", s.handleCancelTask)
				r.Post("/{id}/claim-timeout", s.handleClaimTimeout)
			})

			r.Route("/agents/{agent}", func(r chi.Router) {
				r.Get("/stats", s.handleAgentStats)
				r.Get("/balance", s.handleAgentBalance)
				r.Get("/history", s.handleAgentHistory)
				r.Post("/approve", s.handleApprove)
			})

			r.Get("/events", s.handleEvents)
			r.Get("/overview", s.handleOverview)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/verifiers", s.handleListVerifiers)
				r.Post("/verifiers", s.handleAddVerifier)
				r.Delete("/verifiers/{agent}", s.handleRemoveVerifier)
				r.Put("/timeout", s.handleSetTimeout)
				r.Put("/limits", s.handleSetLimits)
				r.Post("/pause", s.handlePause)
				r.Post("/unpause", s.handleUnpause)
				r.Post("/fund", s.handleFund)
			})
		})

		// Prometheus metrics endpoint
		if s.metricsEnabled {
			r.Handle("/metrics", promhttp.Handler())
		}
	})

	// Long-lived stream, mounted outside the request timeout.
	r.Get("/v1/events/live", s.handleEventsLive)

	return r
}

// ─── Service Endpoints ──────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := http.StatusOK
	label := "ok"
	if !s.checker.IsHealthy() {
		status = http.StatusServiceUnavailable
		label = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": label,
		"checks": s.checker.Statuses(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"version": s.version}
	if s.instanceID != "" {
		resp["instance_id"] = s.instanceID
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// callerID returns the declared principal for the request.
func callerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Agent-ID"))
}

// statusForErr maps ledger and treasury errors to HTTP status codes.
func statusForErr(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidTaskID):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotPayer),
		errors.Is(err, domain.ErrNotPayee),
		errors.Is(err, domain.ErrNotVerifier),
		errors.Is(err, domain.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrTaskAlreadySubmitted),
		errors.Is(err, domain.ErrTaskNotSubmitted),
		errors.Is(err, domain.ErrTimeoutNotReached):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientAllowance):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrSystemPaused):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeLedgerError maps a ledger error to its status and writes it.
func writeLedgerError(w http.ResponseWriter, err error) {
	writeError(w, statusForErr(err), err.Error())
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Agent-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
