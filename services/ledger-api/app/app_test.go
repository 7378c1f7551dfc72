package app_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/app"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/ledger"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/services"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	handler http.Handler
	store   *testutils.MemStore
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	store := testutils.NewMemStore()
	accounts := &testutils.AccountRepo{Store: store}
	txns := &testutils.TransactionRepo{Store: store}
	publisher := &testutils.RecordingPublisher{}
	tokens := testutils.NewTokenManager()

	deps := app.Dependencies{
		DB:       store,
		Pinger:   store,
		Gate:     services.NewAuthGate(logger, store, tokens, accounts),
		Limiter:  pkg.NewDistributedLimiter(nil, "test", 0, 1, time.Second, logger),
		Accounts: services.NewAccountService(logger, store, accounts, tokens, publisher, false),
		Intake:   services.NewIntakeService(logger, ledger.DefaultLimits(), store, txns, accounts, publisher),
		Approval: services.NewApprovalService(logger, store, txns, accounts, publisher),
		Wallets:  services.NewWalletService(logger, store, &testutils.WalletRepo{Store: store}),
		Stats:    services.NewStatsService(logger, store, testutils.StatsRepos(store)),
		Catalog: services.NewCatalogService(logger, store, &testutils.TraderRepo{Store: store}, &testutils.PlanRepo{Store: store},
			&testutils.CopyTradeRepo{Store: store}, accounts),
	}
	return testServer{handler: app.NewRouter(logger, nil, deps), store: store}
}

// login signs in a seeded account and returns its token.
func (s testServer) login(t *testing.T, email string) string {
	t.Helper()
	resp := testutils.Do(t, s.handler, testutils.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/auth/login",
		Body:   map[string]interface{}{"email": email, "password": "password123"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out, err := testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	token, ok := out.Data["token"].(string)
	require.True(t, ok)
	return token
}

func dataMap(t *testing.T, out pkg.APIResponse, key string) map[string]interface{} {
	t.Helper()
	m, ok := out.Data[key].(map[string]interface{})
	require.True(t, ok, "data.%s missing in %v", key, out.Data)
	return m
}

func TestRegister_ReturnsTokenAndUser(t *testing.T) {
	// Arrange
	s := newTestServer(t)

	// Act
	resp := testutils.Do(t, s.handler, testutils.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/auth/register",
		Body:   map[string]interface{}{"email": "new@example.com", "password": "secret1", "fullName": "New Trader"},
	})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.NotEmpty(t, testutils.GetTraceId(resp))
	out, err := testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, testutils.GetTraceId(resp), out.TraceID)
	assert.Equal(t, "User registered successfully", out.Data["message"])
	assert.NotEmpty(t, out.Data["token"])
	user := dataMap(t, out, "user")
	assert.Equal(t, "new@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "passwordHash")
}

func TestRegister_BadBody(t *testing.T) {
	s := newTestServer(t)
	resp := testutils.Do(t, s.handler, testutils.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/auth/register",
		Body:   map[string]interface{}{"email": "not-an-email", "password": "secret1", "fullName": "X"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	out, err := testutils.DecodeError(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pkg.ErrInvalidInputCode.Code, out.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/v1/auth/me", "/api/v1/transactions/mine", "/api/v1/dashboard/stats"} {
		resp := testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: path})
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}

	resp := testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/api/v1/auth/me", Token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	out, err := testutils.DecodeError(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pkg.ErrInvalidCredentialCode.Code, out.Code)
}

func TestAdminRoutes_ForbidUsers(t *testing.T) {
	s := newTestServer(t)
	testutils.SeedAccount(t, s.store, "user@example.com", pkg.RoleUser, "0")
	token := s.login(t, "user@example.com")

	for _, r := range []testutils.Request{
		{Method: http.MethodGet, Path: "/api/v1/transactions"},
		{Method: http.MethodGet, Path: "/api/v1/users"},
		{Method: http.MethodGet, Path: "/api/v1/admin/stats"},
		{Method: http.MethodPut, Path: "/api/v1/transactions/" + uuid.NewString() + "/approve"},
		{Method: http.MethodPut, Path: "/api/v1/wallets/bitcoin", Body: map[string]interface{}{"address": "x"}},
		{Method: http.MethodPost, Path: "/api/v1/traders", Body: map[string]interface{}{"name": "x"}},
		{Method: http.MethodPost, Path: "/api/v1/plans", Body: map[string]interface{}{"name": "x"}},
	} {
		r.Token = token
		resp := testutils.Do(t, s.handler, r)
		assert.Equal(t, http.StatusForbidden, resp.Code, r.Path)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	// Arrange
	s := newTestServer(t)
	user := testutils.SeedAccount(t, s.store, "user@example.com", pkg.RoleUser, "1000")
	testutils.SeedAccount(t, s.store, "admin@example.com", pkg.RoleAdmin, "0")
	userToken := s.login(t, "user@example.com")
	adminToken := s.login(t, "admin@example.com")
	key := uuid.NewString()
	body := map[string]interface{}{"type": "deposit", "amount": 500, "method": "usdt_trc20"}

	// Act: submit, replay, approve
	resp := testutils.Do(t, s.handler, testutils.Request{
		Method: http.MethodPost, Path: "/api/v1/transactions", Token: userToken, Body: body,
		Headers: map[string]string{pkg.HeaderIdempotencyKey: key},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	out, err := testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	created := dataMap(t, out, "transaction")
	assert.Equal(t, "pending", created["status"])
	txnID, _ := created["id"].(string)

	resp = testutils.Do(t, s.handler, testutils.Request{
		Method: http.MethodPost, Path: "/api/v1/transactions", Token: userToken, Body: body,
		Headers: map[string]string{pkg.HeaderIdempotencyKey: key},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out, err = testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, txnID, dataMap(t, out, "transaction")["id"])

	resp = testutils.Do(t, s.handler, testutils.Request{
		Method: http.MethodPut, Path: "/api/v1/transactions/" + txnID + "/approve", Token: adminToken,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out, err = testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Transaction approved", out.Data["message"])
	assert.Equal(t, "completed", dataMap(t, out, "transaction")["status"])

	// Assert
	account, _ := s.store.Account(user.ID)
	assert.True(t, decimal.NewFromInt(1500).Equal(account.Balance), "balance %s", account.Balance)

	resp = testutils.Do(t, s.handler, testutils.Request{
		Method: http.MethodPut, Path: "/api/v1/transactions/" + txnID + "/reject", Token: adminToken,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	errOut, err := testutils.DecodeError(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pkg.ErrAlreadyProcessedCode.Code, errOut.Code)

	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/api/v1/transactions/mine", Token: userToken})
	require.Equal(t, http.StatusOK, resp.Code)
	out, err = testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	mine, ok := out.Data["transactions"].([]interface{})
	require.True(t, ok)
	assert.Len(t, mine, 1)
}

func TestSubmitTransaction_Errors(t *testing.T) {
	s := newTestServer(t)
	testutils.SeedAccount(t, s.store, "user@example.com", pkg.RoleUser, "50")
	token := s.login(t, "user@example.com")

	tests := []struct {
		name    string
		body    map[string]interface{}
		headers map[string]string
		status  int
		code    string
	}{
		{
			name:   "above withdrawal maximum",
			body:   map[string]interface{}{"type": "withdrawal", "amount": "100000.01", "method": "btc", "details": map[string]string{"address": "bc1q"}},
			status: http.StatusBadRequest,
			code:   pkg.ErrInvalidInputCode.Code,
		},
		{
			name:   "insufficient balance",
			body:   map[string]interface{}{"type": "withdrawal", "amount": 100, "method": "btc", "details": map[string]string{"address": "bc1q"}},
			status: http.StatusBadRequest,
			code:   pkg.ErrInsufficientFundsCode.Code,
		},
		{
			name:    "malformed idempotency key",
			body:    map[string]interface{}{"type": "deposit", "amount": 500, "method": "btc"},
			headers: map[string]string{pkg.HeaderIdempotencyKey: "not-a-uuid"},
			status:  http.StatusBadRequest,
			code:    pkg.ErrInvalidInputCode.Code,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutils.Do(t, s.handler, testutils.Request{
				Method: http.MethodPost, Path: "/api/v1/transactions", Token: token, Body: tt.body, Headers: tt.headers,
			})
			assert.Equal(t, tt.status, resp.Code)
			out, err := testutils.DecodeError(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.code, out.Code)
			assert.NotEmpty(t, out.Message)
		})
	}
	assert.Zero(t, s.store.TransactionCount())
}

func TestApprove_InvalidID(t *testing.T) {
	s := newTestServer(t)
	testutils.SeedAccount(t, s.store, "admin@example.com", pkg.RoleAdmin, "0")
	token := s.login(t, "admin@example.com")

	resp := testutils.Do(t, s.handler, testutils.Request{Method: http.MethodPut, Path: "/api/v1/transactions/abc/approve", Token: token})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodPut, Path: "/api/v1/transactions/" + uuid.NewString() + "/approve", Token: token})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestWallets_PublicRead(t *testing.T) {
	s := newTestServer(t)
	resp := testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/api/v1/wallets/usdt_trc20"})
	require.Equal(t, http.StatusOK, resp.Code)
	out, err := testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "usdt_trc20", dataMap(t, out, "wallet")["method"])

	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/api/v1/wallets/dogecoin"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCatalogAndCopyTrading(t *testing.T) {
	// Arrange
	s := newTestServer(t)
	testutils.SeedAccount(t, s.store, "admin@example.com", pkg.RoleAdmin, "0")
	testutils.SeedAccount(t, s.store, "user@example.com", pkg.RoleUser, "400")
	adminToken := s.login(t, "admin@example.com")
	userToken := s.login(t, "user@example.com")

	// Act: admin publishes a trader, anyone can browse it
	resp := testutils.Do(t, s.handler, testutils.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/traders",
		Token:  adminToken,
		Body:   map[string]interface{}{"name": "Sarah Chen", "profit": "+189%", "risk": "Low", "winRate": "82%"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	out, err := testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	traderID, _ := dataMap(t, out, "trader")["id"].(string)
	require.NotEmpty(t, traderID)

	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/api/v1/traders"})
	require.Equal(t, http.StatusOK, resp.Code)
	out, err = testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	assert.Len(t, out.Data["traders"], 1)

	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/api/v1/plans"})
	assert.Equal(t, http.StatusOK, resp.Code)

	// Act: the user copies the trader
	resp = testutils.Do(t, s.handler, testutils.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/copy-trades",
		Token:  userToken,
		Body:   map[string]interface{}{"traderId": traderID, "amount": 150},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	out, err = testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	copyID, _ := dataMap(t, out, "copyTrade")["id"].(string)

	// Assert: the dashboard counts the position and the balance is untouched
	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/api/v1/dashboard/stats", Token: userToken})
	require.Equal(t, http.StatusOK, resp.Code)
	out, err = testutils.DecodeSuccess(resp.Body)
	require.NoError(t, err)
	stats := dataMap(t, out, "stats")
	assert.EqualValues(t, 1, stats["activeCopies"])
	assert.Equal(t, "400", stats["balance"])

	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodPut, Path: "/api/v1/copy-trades/" + copyID + "/stop", Token: userToken})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodPut, Path: "/api/v1/copy-trades/not-a-uuid/stop", Token: userToken})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/health"})
	assert.Equal(t, http.StatusOK, resp.Code)

	s.store.PingErr = errors.New("connection refused")
	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/health"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/api/v1/wallets"})
	resp := testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/metrics"})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "copytrade_ledger_")
}

func TestSwaggerDocument(t *testing.T) {
	s := newTestServer(t)
	resp := testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/swagger/doc.json"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Copytrade Ledger API")
	assert.Contains(t, resp.Body.String(), "/copy-trades/{id}/stop")

	resp = testutils.Do(t, s.handler, testutils.Request{Method: http.MethodGet, Path: "/swagger/index.html"})
	assert.Equal(t, http.StatusOK, resp.Code)
}
