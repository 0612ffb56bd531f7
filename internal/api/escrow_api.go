package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wildhash/agentpay/internal/app/escrow"
	"github.com/wildhash/agentpay/internal/domain"
)

// ─── Escrow lifecycle (/v1/tasks) ────────────────────────────────────────────

// --- POST /v1/tasks (create escrow) ---

type createTaskRequest struct {
	Payee       string `json:"payee"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	TimeoutSecs int64  `json:"timeout_secs,omitempty"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	timeout := time.Duration(req.TimeoutSecs) * time.Second
	task, err := s.ledger.CreateTask(callerID(r), req.Payee, req.Amount, req.Description, timeout)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// --- GET /v1/tasks (list, with filters) ---

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter := escrowFilter(r)
	tasks := s.ledger.ListTasks(filter)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// --- GET /v1/tasks/{id} ---

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := s.ledger.GetTask(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// --- POST /v1/tasks/{id}/deliverable (submit work) ---

type submitRequest struct {
	DeliverableHash string `json:"deliverable_hash"`
}

func (s *Server) handleSubmitDeliverable(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A submission past the deadline succeeds with status TIMED_OUT
	// and a full refund. Callers inspect the returned status.
	task, err := s.ledger.SubmitDeliverable(callerID(r), id, req.DeliverableHash)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// --- POST /v1/tasks/{id}/resolve (verifier scores) ---

type resolveRequest struct {
	Score int `json:"score"`
}

func (s *Server) handleResolveTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.ledger.ScoreAndResolve(callerID(r), id, req.Score)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// --- POST /v1/tasks/{id}/cancel (payer aborts) ---

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	task, err := s.ledger.CancelTask(callerID(r), id, req.Reason)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// --- POST /v1/tasks/{id}/claim-timeout (payer reclaims) ---

func (s *Server) handleClaimTimeout(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := s.ledger.ClaimTimeout(callerID(r), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// ─── Agent queries (/v1/agents) ─────────────────────────────────────────────

// --- GET /v1/agents/{agent}/stats (reputation) ---

func (s *Server) handleAgentStats(w http.ResponseWriter, r *http.Request) {
	agent := chi.URLParam(r, "agent")
	writeJSON(w, http.StatusOK, s.ledger.AgentStats(agent))
}

// --- GET /v1/agents/{agent}/balance ---

func (s *Server) handleAgentBalance(w http.ResponseWriter, r *http.Request) {
	agent := chi.URLParam(r, "agent")

	balance, err := s.treasury.Balance(agent)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	allowance, err := s.treasury.Allowance(agent)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":   agent,
		"balance":   balance,
		"allowance": allowance,
	})
}

// --- GET /v1/agents/{agent}/history (funds ledger entries) ---

func (s *Server) handleAgentHistory(w http.ResponseWriter, r *http.Request) {
	agent := chi.URLParam(r, "agent")
	limit := queryInt(r, "limit", 50)

	entries, err := s.treasury.History(agent, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": agent,
		"entries": entries,
	})
}

// --- POST /v1/agents/{agent}/approve (set spending allowance) ---

type approveRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	agent := chi.URLParam(r, "agent")
	if callerID(r) != agent {
		writeError(w, http.StatusForbidden, "only the account owner can set an allowance")
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.treasury.Approve(agent, req.Amount); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":   agent,
		"allowance": req.Amount,
	})
}

// ─── Event feed (/v1/events) ────────────────────────────────────────────────

// --- GET /v1/events (recent, newest last) ---

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	evs := s.bus.Recent(limit)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": evs,
		"count":  len(evs),
	})
}

// --- GET /v1/events/live (SSE stream) ---

func (s *Server) handleEventsLive(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := s.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// ─── Overview (/v1/overview) ────────────────────────────────────────────────

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Overview())
}

// ─── Request parsing helpers ────────────────────────────────────────────────

// taskID parses the {id} route parameter. On failure it writes a 400
// and returns ok=false.
func taskID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid task id %q", raw))
		return 0, false
	}
	return id, true
}

// escrowFilter builds a task filter from query parameters.
func escrowFilter(r *http.Request) escrow.TaskFilter {
	q := r.URL.Query()
	return escrow.TaskFilter{
		Status: domain.TaskStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Agent:  strings.TrimSpace(q.Get("agent")),
	}
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
