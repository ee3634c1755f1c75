// Package server exposes the ledger over HTTP. Handlers only decode
// requests, call the ledger, and encode responses; all business rules
// live in the ledger package.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bankledger/internal/ledger"
	"bankledger/internal/metrics"
)

// Server wires the ledger into HTTP. The persist hook, when set, is
// called after every successful mutation so a snapshot store can keep
// up with the in-memory state; its failure is logged, never surfaced
// to the client.
type Server struct {
	ledger  *ledger.Ledger
	log     *zap.Logger
	metrics *metrics.Metrics
	persist func() error
}

func New(l *ledger.Ledger, log *zap.Logger, m *metrics.Metrics, persist func() error) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{ledger: l, log: log, metrics: m, persist: persist}
}

func (s *Server) observe(operation string, err error) {
	if s.metrics != nil {
		s.metrics.Observe(operation, err)
	}
}

func (s *Server) persisted() {
	if s.persist == nil {
		return
	}
	if err := s.persist(); err != nil {
		s.log.Error("snapshot persist failed", zap.Error(err))
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /accounts {"username": ..., "opening_balance": "5000.00"}
func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username       string          `json:"username"`
		OpeningBalance decimal.Decimal `json:"opening_balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}

	account, err := s.ledger.CreateAccount(req.Username, req.OpeningBalance)
	s.observe("create_account", err)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, account)
	s.persisted()
}

// GET /accounts/{username}
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	account, err := s.ledger.GetAccount(username)
	s.observe("get_account", err)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GET /accounts/{username}/statement
func (s *Server) statement(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	txs, err := s.ledger.GenerateStatement(username)
	s.observe("statement", err)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username":     username,
		"transactions": txs,
	})
}

// POST /accounts/{username}/deposits {"amount": "100.00"}
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}

	account, err := s.ledger.Deposit(username, req.Amount)
	s.observe("deposit", err)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, account)
	s.persisted()
}

// POST /transfers {"source": ..., "dest": ..., "amount": "1200.50"}
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string          `json:"source"`
		Dest   string          `json:"dest"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}

	account, err := s.ledger.Transfer(req.Source, req.Dest, req.Amount)
	s.observe("transfer", err)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, account)
	s.persisted()
}

// POST /loans {"username": ..., "amount": "500.00"}
func (s *Server) applyLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string          `json:"username"`
		Amount   decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}

	account, err := s.ledger.ApplyLoan(req.Username, req.Amount)
	s.observe("apply_loan", err)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, account)
	s.persisted()
}

// POST /settlements {"username": ..., "period": "2026-08"}
func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Period   string `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}

	account, err := s.ledger.ProcessMonthlyCharges(req.Username, req.Period)
	s.observe("settlement", err)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, account)
	s.persisted()
}
