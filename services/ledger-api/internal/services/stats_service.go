package services

import (
	"context"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	ledgerviews "github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/views"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type StatsService interface {
	AdminStats(ctx context.Context, traceID string, principal views.Principal) (ledgerviews.AdminStats, error)
	DashboardStats(ctx context.Context, traceID string, principal views.Principal) (ledgerviews.DashboardStats, error)
}

// StatsRepositories groups the read models the stats queries aggregate over.
type StatsRepositories struct {
	Accounts     repositories.AccountRepository
	Transactions repositories.TransactionRepository
	Traders      repositories.TraderRepository
	Plans        repositories.PlanRepository
	CopyTrades   repositories.CopyTradeRepository
}

type StatsServiceImpl struct {
	logger *zap.Logger
	db     database.Querier
	repos  StatsRepositories
}

func NewStatsService(logger *zap.Logger, db database.Querier, repos StatsRepositories) StatsService {
	return &StatsServiceImpl{logger: logger, db: db, repos: repos}
}

// AdminStats counts regular users only; the platform balance likewise excludes admin accounts.
func (s *StatsServiceImpl) AdminStats(ctx context.Context, traceID string, principal views.Principal) (ledgerviews.AdminStats, error) {
	if err := requireAdmin(principal); err != nil {
		return ledgerviews.AdminStats{}, err
	}
	var (
		stats   ledgerviews.AdminStats
		err     error
		pending = pkg.TransactionStatusPending
	)
	if stats.TotalUsers, err = s.repos.Accounts.CountByRole(ctx, s.db, pkg.RoleUser); err != nil {
		return ledgerviews.AdminStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if stats.TotalTransactions, err = s.repos.Transactions.Count(ctx, s.db, repositories.TransactionFilter{}); err != nil {
		return ledgerviews.AdminStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if stats.PendingTransactions, err = s.repos.Transactions.Count(ctx, s.db, repositories.TransactionFilter{Status: &pending}); err != nil {
		return ledgerviews.AdminStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if stats.TotalPlatformBalance, err = s.repos.Accounts.SumBalance(ctx, s.db, pkg.RoleUser); err != nil {
		return ledgerviews.AdminStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if stats.TotalTraders, err = s.repos.Traders.CountActive(ctx, s.db); err != nil {
		return ledgerviews.AdminStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if stats.TotalPlans, err = s.repos.Plans.CountActive(ctx, s.db); err != nil {
		return ledgerviews.AdminStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	return stats, nil
}

func (s *StatsServiceImpl) DashboardStats(ctx context.Context, traceID string, principal views.Principal) (ledgerviews.DashboardStats, error) {
	account, err := s.repos.Accounts.FindByID(ctx, s.db, principal.AccountID)
	if err != nil {
		return ledgerviews.DashboardStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	var (
		stats   = ledgerviews.DashboardStats{Balance: account.Balance}
		trade   = pkg.TransactionTypeTrade
		pending = pkg.TransactionStatusPending
	)
	if stats.TotalTrades, err = s.repos.Transactions.Count(ctx, s.db, repositories.TransactionFilter{OwnerID: &account.ID, Type: &trade}); err != nil {
		return ledgerviews.DashboardStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if stats.PendingTransactions, err = s.repos.Transactions.Count(ctx, s.db, repositories.TransactionFilter{OwnerID: &account.ID, Status: &pending}); err != nil {
		return ledgerviews.DashboardStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	summary, err := s.repos.CopyTrades.ActiveSummary(ctx, s.db, account.ID)
	if err != nil {
		return ledgerviews.DashboardStats{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	stats.ActiveCopies = summary.ActiveCopies
	stats.Profit = summary.Profit
	stats.ProfitPercentage = profitPercentage(summary.Profit, account.Balance)
	return stats, nil
}

// profitPercentage is profit relative to balance, rounded to two places; zero without a balance.
func profitPercentage(profit, balance decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(balance).Mul(decimal.NewFromInt(100)).Round(2)
}
