package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	"go.uber.org/zap"
)

// Limiter is satisfied by pkg.DistributedLimiter.
type Limiter interface {
	Allow(ctx context.Context, subject string) bool
}

// RateLimit throttles per authenticated principal, falling back to the client IP.
// A nil limiter disables throttling.
func RateLimit(logger *zap.Logger, limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		subject := c.ClientIP()
		if principal, ok := GetPrincipal(c); ok {
			subject = principal.AccountID.String()
		}
		if !limiter.Allow(c.Request.Context(), subject) {
			utils.AbortWithError(c, logger, pkg.NewAppError(pkg.ErrRateLimitedCode, pkg.ErrRateLimitedCode.Message, nil))
			return
		}
		c.Next()
	}
}
