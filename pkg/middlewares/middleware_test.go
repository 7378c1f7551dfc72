package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubResolver struct {
	principals map[string]views.Principal
}

func (s stubResolver) Resolve(_ context.Context, _ string, bearer string) (views.Principal, error) {
	if bearer == "" {
		return views.Principal{}, pkg.NewAppError(pkg.ErrUnauthenticatedCode, "missing credential", nil)
	}
	p, ok := s.principals[bearer]
	if !ok {
		return views.Principal{}, pkg.NewAppError(pkg.ErrInvalidCredentialCode, "invalid credential", nil)
	}
	return p, nil
}

type denyAfter struct {
	allowed int
	calls   map[string]int
}

func (d *denyAfter) Allow(_ context.Context, subject string) bool {
	d.calls[subject]++
	return d.calls[subject] <= d.allowed
}

func newRouter(resolver PrincipalResolver, admin bool, limiter Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	r := gin.New()
	r.Use(TraceID(logger))
	chain := []gin.HandlerFunc{Authenticate(logger, resolver)}
	if admin {
		chain = append(chain, RequireAdmin(logger))
	}
	if limiter != nil {
		chain = append(chain, RateLimit(logger, limiter))
	}
	chain = append(chain, func(c *gin.Context) {
		p, _ := GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"accountId": p.AccountID.String()})
	})
	r.GET("/resource", chain...)
	return r
}

func doGet(r *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	if header != "" {
		req.Header.Set(pkg.HeaderAuthorization, header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer   abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestAuthenticate(t *testing.T) {
	user := views.Principal{AccountID: uuid.New(), Role: pkg.RoleUser}
	resolver := stubResolver{principals: map[string]views.Principal{"user-token": user}}
	r := newRouter(resolver, false, nil)

	t.Run("missing header", func(t *testing.T) {
		w := doGet(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get(pkg.HeaderTraceId))
		var body pkg.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, pkg.ErrUnauthenticatedCode.Code, body.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		w := doGet(r, "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body pkg.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, pkg.ErrInvalidCredentialCode.Code, body.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := doGet(r, "Bearer user-token")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), user.AccountID.String())
	})
}

func TestRequireAdmin(t *testing.T) {
	user := views.Principal{AccountID: uuid.New(), Role: pkg.RoleUser}
	admin := views.Principal{AccountID: uuid.New(), Role: pkg.RoleAdmin}
	resolver := stubResolver{principals: map[string]views.Principal{"u": user, "a": admin}}
	r := newRouter(resolver, true, nil)

	assert.Equal(t, http.StatusForbidden, doGet(r, "Bearer u").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "Bearer a").Code)
}

func TestRateLimit(t *testing.T) {
	first := views.Principal{AccountID: uuid.New(), Role: pkg.RoleUser}
	second := views.Principal{AccountID: uuid.New(), Role: pkg.RoleUser}
	resolver := stubResolver{principals: map[string]views.Principal{"one": first, "two": second}}
	limiter := &denyAfter{allowed: 1, calls: map[string]int{}}
	r := newRouter(resolver, false, limiter)

	assert.Equal(t, http.StatusOK, doGet(r, "Bearer one").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, "Bearer one").Code)
	// limits are per principal
	assert.Equal(t, http.StatusOK, doGet(r, "Bearer two").Code)
}

func TestTraceID_ReusesIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceID(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(pkg.TraceId)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(pkg.HeaderTraceId, "trace-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get(pkg.HeaderTraceId))
	assert.Equal(t, "trace-123", w.Body.String())
}
