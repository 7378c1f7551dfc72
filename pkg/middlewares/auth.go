package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/utils"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"go.uber.org/zap"
)

// PrincipalResolver turns a bearer credential into the acting principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, traceID, bearer string) (views.Principal, error)
}

// Authenticate resolves the Authorization header and stores the Principal on the context.
func Authenticate(logger *zap.Logger, resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := BearerToken(c.GetHeader(pkg.HeaderAuthorization))
		principal, err := resolver.Resolve(c.Request.Context(), c.GetString(pkg.TraceId), bearer)
		if err != nil {
			utils.AbortWithError(c, logger, err)
			return
		}
		c.Set(pkg.PrincipalKey, principal)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			utils.AbortWithError(c, logger, pkg.NewAppError(pkg.ErrUnauthenticatedCode, "authentication required", nil))
			return
		}
		if !principal.IsAdmin() {
			utils.AbortWithError(c, logger, pkg.NewAppError(pkg.ErrForbiddenCode, "admin access required", nil))
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the Principal stored by Authenticate.
func GetPrincipal(c *gin.Context) (views.Principal, bool) {
	value, ok := c.Get(pkg.PrincipalKey)
	if !ok {
		return views.Principal{}, false
	}
	principal, ok := value.(views.Principal)
	return principal, ok
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value. Anything else yields "".
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
