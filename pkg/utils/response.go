package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"go.uber.org/zap"
)

// RespondOK writes the standard success envelope with the request's trace id.
func RespondOK(c *gin.Context, status int, data map[string]interface{}) {
	c.JSON(status, pkg.APIResponse{
		TraceID: c.GetString(pkg.TraceId),
		Data:    data,
	})
}

// AbortWithError maps err to its status and error body and stops the handler chain.
func AbortWithError(c *gin.Context, logger *zap.Logger, err error) {
	resp := pkg.ToErrorResponse(logger, c.GetString(pkg.TraceId), err)
	c.AbortWithStatusJSON(resp.Status, resp)
}
