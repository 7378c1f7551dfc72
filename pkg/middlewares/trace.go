package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	"go.uber.org/zap"
)

// TraceID returns Gin middleware to handle trace IDs for observability.
// An incoming X-Trace-Id is reused; otherwise a new one is minted.
func TraceID(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.Request.Header.Get(pkg.HeaderTraceId)
		if utils.IsBlank(traceID) || len(traceID) > 128 {
			traceID = uuid.New().String()
		}
		// Set in context for handlers/services (e.g., logging, Kafka publish)
		c.Set(pkg.TraceId, traceID)
		// Propagate in the response header for clients/downstream tracing
		c.Writer.Header().Set(pkg.HeaderTraceId, traceID)
		c.Next()

		if len(c.Errors) > 0 {
			logger.Debug("request finished with errors",
				zap.String(pkg.TraceId, traceID),
				zap.String("path", c.FullPath()),
				zap.String("errors", c.Errors.String()))
		}
	}
}
