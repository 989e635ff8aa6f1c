package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/float-ledger/internal/auth"
	"github.com/josh-kwaku/float-ledger/internal/handler"
	"github.com/josh-kwaku/float-ledger/internal/repository/memory"
	"github.com/josh-kwaku/float-ledger/internal/server"
	"github.com/josh-kwaku/float-ledger/internal/service"
	"github.com/josh-kwaku/float-ledger/internal/service/commission"
	"github.com/josh-kwaku/float-ledger/internal/service/statement"
	"github.com/josh-kwaku/float-ledger/internal/service/transaction"
	"github.com/josh-kwaku/float-ledger/internal/testutil"
)

const testSecret = "router-test-secret"

type harness struct {
	t      *testing.T
	router http.Handler
	store  *memory.Store
	branch *testutil.Branch
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	branch := testutil.SeedBranch(t, store, testutil.BranchBalances{CashTill: 100_000, Float: 100_000})
	outbox := service.NewOutbox(memory.NewOutbox())

	router := server.NewRouter(server.Handlers{
		Health:       handler.NewHealthHandler(nil, "memory"),
		Transactions: handler.NewTransactionHandler(transaction.NewService(store, outbox, 3)),
		Commissions:  handler.NewCommissionHandler(commission.NewService(store, outbox, 3)),
		Accounts:     handler.NewAccountHandler(service.NewAccountService(store, 3), statement.NewService(store)),
	}, server.Options{
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"*"},
		Replays:        memory.NewReplayStore(),
	})

	return &harness{t: t, router: router, store: store, branch: branch}
}

func (h *harness) token(role auth.Role, branchID uuid.UUID) string {
	h.t.Helper()
	tok, err := auth.GenerateToken(auth.Claims{UserID: uuid.New(), BranchID: branchID, Role: role}, testSecret, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/v1/transactions/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, rec))

	rec = h.do(http.MethodGet, "/api/v1/transactions/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
}

func TestTransactionLifecycle(t *testing.T) {
	h := newHarness(t)
	teller := h.token(auth.RoleTeller, h.branch.ID)
	manager := h.token(auth.RoleManager, h.branch.ID)

	rec := h.do(http.MethodPost, "/api/v1/transactions/", teller, map[string]any{
		"service_type":     "momo",
		"direction":        "cash_in",
		"amount":           "100.00",
		"fee":              "2.00",
		"customer_phone":   "0241234567",
		"float_account_id": h.branch.FloatID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData(t, rec)
	assert.Equal(t, "102.00", created["cash_till_delta"])
	assert.Equal(t, "-100.00", created["float_delta"])
	id := created["id"].(string)

	rec = h.do(http.MethodGet, "/api/v1/transactions/"+id+"/journal", teller, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Tellers may post but not amend.
	rec = h.do(http.MethodPut, "/api/v1/transactions/"+id, teller, map[string]any{
		"service_type": "momo", "direction": "cash_in", "amount": "150.00", "float_account_id": h.branch.FloatID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPut, "/api/v1/transactions/"+id, manager, map[string]any{
		"service_type": "momo", "direction": "cash_in", "amount": "150.00", "fee": "3.00", "float_account_id": h.branch.FloatID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "153.00", decodeData(t, rec)["cash_till_delta"])
	assert.Equal(t, int64(100_153), testutil.Balance(t, h.store, h.branch.CashTillID))

	rec = h.do(http.MethodDelete, "/api/v1/transactions/"+id, manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(100_000), testutil.Balance(t, h.store, h.branch.CashTillID))
	assert.Equal(t, int64(100_000), testutil.Balance(t, h.store, h.branch.FloatID))

	rec = h.do(http.MethodDelete, "/api/v1/transactions/"+id, manager, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionValidation(t *testing.T) {
	h := newHarness(t)
	teller := h.token(auth.RoleTeller, h.branch.ID)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{"three decimals", map[string]any{"service_type": "momo", "direction": "cash_in", "amount": "1.005", "float_account_id": h.branch.FloatID}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing float", map[string]any{"service_type": "momo", "direction": "cash_in", "amount": "1.00"}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown field", map[string]any{"service_type": "momo", "direction": "cash_in", "amount": "1.00", "float_account_id": h.branch.FloatID, "extra": 1}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unsupported pair", map[string]any{"service_type": "momo", "direction": "settlement", "amount": "1.00", "float_account_id": h.branch.FloatID}, http.StatusBadRequest, "UNSUPPORTED_TRANSACTION_TYPE"},
		{"overdraw", map[string]any{"service_type": "momo", "direction": "cash_out", "amount": "5000.00", "float_account_id": h.branch.FloatID}, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/v1/transactions/", teller, tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tc.wantCode, errorCode(t, rec))
		})
	}
}

func TestBranchScoping(t *testing.T) {
	h := newHarness(t)
	teller := h.token(auth.RoleTeller, h.branch.ID)

	rec := h.do(http.MethodPost, "/api/v1/transactions/", teller, map[string]any{
		"service_type": "momo", "direction": "cash_in", "amount": "10.00", "float_account_id": h.branch.FloatID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeData(t, rec)["id"].(string)

	outsider := h.token(auth.RoleManager, uuid.New())
	rec = h.do(http.MethodGet, "/api/v1/transactions/"+id, outsider, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/float-accounts/"+h.branch.FloatID.String(), outsider, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	admin := h.token(auth.RoleAdmin, uuid.New())
	rec = h.do(http.MethodGet, "/api/v1/transactions/"+id, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCommissionApprovalGate(t *testing.T) {
	h := newHarness(t)
	teller := h.token(auth.RoleTeller, h.branch.ID)
	manager := h.token(auth.RoleManager, h.branch.ID)

	rec := h.do(http.MethodPost, "/api/v1/commissions/", teller, map[string]any{
		"source_account_id": h.branch.FloatID,
		"amount":            "10.00",
		"description":       "weekly",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeData(t, rec)["id"].(string)

	rec = h.do(http.MethodPost, "/api/v1/commissions/"+id+"/approve", teller, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, int64(100_000), testutil.Balance(t, h.store, h.branch.FloatID))

	rec = h.do(http.MethodPost, "/api/v1/commissions/"+id+"/approve", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decodeData(t, rec)["status"])
	assert.Equal(t, int64(101_000), testutil.Balance(t, h.store, h.branch.FloatID))

	rec = h.do(http.MethodPost, "/api/v1/commissions/"+id+"/approve", manager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/commissions/"+id+"/pay", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "paid", decodeData(t, rec)["status"])
}

func TestStatementEndpoint(t *testing.T) {
	h := newHarness(t)
	teller := h.token(auth.RoleTeller, h.branch.ID)

	rec := h.do(http.MethodPost, "/api/v1/transactions/", teller, map[string]any{
		"service_type": "momo", "direction": "cash_in", "amount": "100.00", "fee": "2.00", "float_account_id": h.branch.FloatID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	today := time.Now().UTC().Format(time.DateOnly)
	rec = h.do(http.MethodGet, "/api/v1/float-accounts/"+h.branch.CashTillID.String()+"/statement?start="+today+"&end="+today, teller, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	st := decodeData(t, rec)
	assert.Equal(t, "1000.00", st["opening_balance"])
	assert.Equal(t, "1001.02", st["closing_balance"])
	assert.Len(t, st["entries"], 1)

	rec = h.do(http.MethodGet, "/api/v1/float-accounts/"+h.branch.CashTillID.String()+"/statement?start=yesterday", teller, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGLMappingsRequireSupervisor(t *testing.T) {
	h := newHarness(t)
	body := map[string]any{
		"float_account_id": h.branch.JumiaID,
		"mapping_type":     "fee_account",
		"gl_code":          "4000",
		"gl_name":          "Fee Income",
		"gl_type":          "revenue",
	}

	rec := h.do(http.MethodPost, "/api/v1/gl-mappings/", h.token(auth.RoleTeller, h.branch.ID), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/gl-mappings/", h.token(auth.RoleAdmin, h.branch.ID), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/v1/gl-mappings/", h.token(auth.RoleAdmin, h.branch.ID), body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "MAPPING_EXISTS", errorCode(t, rec))
}
