package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/prometheus/client_golang/prometheus"

	"bankledger/internal/ledger"
	"bankledger/internal/metrics"
	"bankledger/internal/models"
	"bankledger/internal/storage/memory"
)

func newTestServer(t *testing.T) (*ledger.Ledger, *memory.MemorySnapshotStore, http.Handler) {
	t.Helper()
	l := ledger.New(nil, nil)
	store := memory.NewMemorySnapshotStore()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry, "test")
	persist := func() error {
		return store.Save(context.Background(), l.Snapshot())
	}
	s := New(l, nil, m, persist)
	return l, store, s.Router(registry)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAccountLifecycle(t *testing.T) {
	_, _, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/accounts", `{"username":"alice","opening_balance":"5000.00"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var account models.Account
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "5000", account.Balance.String())

	rec = doJSON(t, h, http.MethodPost, "/accounts", `{"username":"alice","opening_balance":"0"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/accounts/alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/accounts/nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransferEndpoint(t *testing.T) {
	_, store, h := newTestServer(t)
	doJSON(t, h, http.MethodPost, "/accounts", `{"username":"alice","opening_balance":"5000.00"}`)
	doJSON(t, h, http.MethodPost, "/accounts", `{"username":"bob","opening_balance":"3000.00"}`)

	rec := doJSON(t, h, http.MethodPost, "/transfers", `{"source":"alice","dest":"bob","amount":"1200.50"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var account models.Account
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Equal(t, "3799.5", account.Balance.String())

	// Error mapping.
	rec = doJSON(t, h, http.MethodPost, "/transfers", `{"source":"alice","dest":"bob","amount":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/transfers", `{"source":"alice","dest":"nobody","amount":"1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/transfers", `{"source":"alice","dest":"bob","amount":"999999"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/transfers", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Each successful mutation persisted a snapshot.
	snap, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, len(snap.Accounts))
}

func TestLoanAndSettlementEndpoints(t *testing.T) {
	_, _, h := newTestServer(t)
	doJSON(t, h, http.MethodPost, "/accounts", `{"username":"alice","opening_balance":"1000.00"}`)

	rec := doJSON(t, h, http.MethodPost, "/loans", `{"username":"alice","amount":"500.00"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var account models.Account
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Equal(t, 1, len(account.Loans))
	assert.Equal(t, "25", account.Loans[0].MonthlyPayment.String())

	rec = doJSON(t, h, http.MethodPost, "/settlements", `{"username":"alice","period":"2026-08"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Equal(t, "1355", account.Balance.String())

	// Duplicate period is rejected.
	rec = doJSON(t, h, http.MethodPost, "/settlements", `{"username":"alice","period":"2026-08"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/settlements", `{"username":"alice","period":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatementEndpoint(t *testing.T) {
	l, _, h := newTestServer(t)
	doJSON(t, h, http.MethodPost, "/accounts", `{"username":"alice","opening_balance":"100.00"}`)
	for i := 0; i < 12; i++ {
		rec := doJSON(t, h, http.MethodPost, "/accounts/alice/deposits", `{"amount":"1.00"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/accounts/alice/statement", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Username     string               `json:"username"`
		Transactions []models.Transaction `json:"transactions"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10, len(resp.Transactions))

	// The projection is non-destructive.
	account, err := l.GetAccount("alice")
	assert.NoError(t, err)
	assert.Equal(t, 13, len(account.Transactions))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	_, _, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	doJSON(t, h, http.MethodPost, "/accounts", `{"username":"alice","opening_balance":"1.00"}`)
	rec = doJSON(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_ledger_operations_total")
}
