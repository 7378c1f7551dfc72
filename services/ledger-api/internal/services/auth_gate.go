package services

import (
	"context"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/auth"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"go.uber.org/zap"
)

// AuthGate resolves a bearer token to the acting Principal. The role comes from the current
// account row, not the token, so a demotion or deactivation takes effect on the next request.
type AuthGate struct {
	logger      *zap.Logger
	db          database.Store
	tokens      *auth.TokenManager
	accountRepo repositories.AccountRepository
}

func NewAuthGate(logger *zap.Logger, db database.Store, tokens *auth.TokenManager, accountRepo repositories.AccountRepository) *AuthGate {
	return &AuthGate{logger: logger, db: db, tokens: tokens, accountRepo: accountRepo}
}

func (g *AuthGate) Resolve(ctx context.Context, traceID, bearer string) (views.Principal, error) {
	if bearer == "" {
		return views.Principal{}, pkg.NewAppError(pkg.ErrUnauthenticatedCode, "not authenticated", nil)
	}
	accountID, _, err := g.tokens.Verify(bearer)
	if err != nil {
		return views.Principal{}, pkg.NewAppError(pkg.ErrInvalidCredentialCode, "invalid or expired token", err)
	}
	// The primary, so a demotion is visible on the very next request.
	account, err := g.accountRepo.FindByID(ctx, g.db.Primary(), accountID)
	if pkg.HasCode(err, pkg.ErrRecordNotFoundCode) {
		return views.Principal{}, pkg.NewAppError(pkg.ErrUnauthenticatedCode, "account not found", nil)
	}
	if err != nil {
		return views.Principal{}, pkg.HandleSQLError(traceID, g.logger, err)
	}
	if !account.IsActive() {
		return views.Principal{}, pkg.NewAppError(pkg.ErrForbiddenCode, "account is inactive", nil)
	}
	return views.Principal{AccountID: account.ID, Role: account.Role}, nil
}
