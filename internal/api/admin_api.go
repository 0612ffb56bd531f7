package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wildhash/agentpay/internal/domain"
)

// ─── Admin surface (/v1/admin) ───────────────────────────────────────────────
// Mutations are authorized by the ledger against the declared caller.
// The verifier listing is read-only and deliberately open: payees pick
// their verifier from it.

// --- GET /v1/admin/verifiers ---

func (s *Server) handleListVerifiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verifiers": s.ledger.Verifiers(),
	})
}

// --- POST /v1/admin/verifiers (grant scoring authority) ---

type verifierRequest struct {
	Agent string `json:"agent"`
}

func (s *Server) handleAddVerifier(w http.ResponseWriter, r *http.Request) {
	var req verifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.AddVerifier(callerID(r), req.Agent); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verifiers": s.ledger.Verifiers(),
	})
}

// --- DELETE /v1/admin/verifiers/{agent} ---

func (s *Server) handleRemoveVerifier(w http.ResponseWriter, r *http.Request) {
	agent := chi.URLParam(r, "agent")

	if err := s.ledger.RemoveVerifier(callerID(r), agent); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verifiers": s.ledger.Verifiers(),
	})
}

// --- PUT /v1/admin/timeout (default escrow deadline) ---

type timeoutRequest struct {
	Seconds int64 `json:"seconds"`
}

func (s *Server) handleSetTimeout(w http.ResponseWriter, r *http.Request) {
	var req timeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := time.Duration(req.Seconds) * time.Second
	if err := s.ledger.SetDefaultTimeout(callerID(r), d); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"default_timeout_secs": req.Seconds,
	})
}

// --- PUT /v1/admin/limits (task amount bounds) ---

type limitsRequest struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

func (s *Server) handleSetLimits(w http.ResponseWriter, r *http.Request) {
	var req limitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.SetAmountLimits(callerID(r), req.Min, req.Max); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"min_task_amount": req.Min,
		"max_task_amount": req.Max,
	})
}

// --- POST /v1/admin/pause and /v1/admin/unpause ---

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Pause(callerID(r)); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Unpause(callerID(r)); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

// --- POST /v1/admin/fund (mint units into an account) ---

type fundRequest struct {
	Agent  string `json:"agent"`
	Amount int64  `json:"amount"`
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	// The treasury itself has no notion of authority, so minting is
	// gated here against the ledger's admin.
	if callerID(r) != s.ledger.Admin() {
		writeLedgerError(w, domain.ErrNotAdmin)
		return
	}

	var req fundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.treasury.Fund(req.Agent, req.Amount, "admin top-up"); err != nil {
		writeLedgerError(w, err)
		return
	}

	balance, err := s.treasury.Balance(req.Agent)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": req.Agent,
		"balance": balance,
	})
}
