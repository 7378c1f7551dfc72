package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	middleware "github.com/nimeshabuddhika/copytrade-ledger/pkg/middlewares"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"go.uber.org/zap"
)

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Guards are the per-route middlewares shared by every handler.
type Guards struct {
	Authenticated gin.HandlerFunc
	Admin         gin.HandlerFunc
	IntakeLimit   gin.HandlerFunc
}

type BaseHandler struct {
	logger *zap.Logger
	db     Pinger
}

func NewBaseHandler(logger *zap.Logger, db Pinger) *BaseHandler {
	return &BaseHandler{logger: logger, db: db}
}

func (b *BaseHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", b.GetHealth)
}

func (b *BaseHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := b.db.Ping(ctx); err != nil {
		b.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// principal returns the authenticated caller or aborts with 401.
func principal(c *gin.Context, logger *zap.Logger) (views.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.AbortWithError(c, logger, pkg.NewAppError(pkg.ErrUnauthenticatedCode, "not authenticated", nil))
	}
	return p, ok
}

// pathUUID parses a UUID path parameter or aborts with 400.
func pathUUID(c *gin.Context, logger *zap.Logger, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.AbortWithError(c, logger, pkg.NewValidationError("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body or aborts with 400.
func bindJSON(c *gin.Context, logger *zap.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.AbortWithError(c, logger, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid request body", err))
		return false
	}
	return true
}
