package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	ledgerviews "github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/views"
	"go.uber.org/zap"
)

// CatalogService serves the trader and plan catalog and the caller's simulated copy positions.
type CatalogService interface {
	ListTraders(ctx context.Context, traceID string) ([]views.TraderView, error)
	CreateTrader(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.TraderRequest) (views.TraderView, error)
	ListPlans(ctx context.Context, traceID string) ([]views.PlanView, error)
	CreatePlan(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.PlanRequest) (views.PlanView, error)
	StartCopy(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.CopyTradeRequest) (views.CopyTradeView, error)
	ListCopies(ctx context.Context, traceID string, principal views.Principal, limit, offset int) ([]views.CopyTradeView, error)
	StopCopy(ctx context.Context, traceID string, principal views.Principal, id uuid.UUID) (views.CopyTradeView, error)
}

type CatalogServiceImpl struct {
	logger        *zap.Logger
	db            database.Store
	traderRepo    repositories.TraderRepository
	planRepo      repositories.PlanRepository
	copyTradeRepo repositories.CopyTradeRepository
	accountRepo   repositories.AccountRepository
}

func NewCatalogService(logger *zap.Logger, db database.Store, traderRepo repositories.TraderRepository, planRepo repositories.PlanRepository,
	copyTradeRepo repositories.CopyTradeRepository, accountRepo repositories.AccountRepository) CatalogService {
	return &CatalogServiceImpl{
		logger:        logger,
		db:            db,
		traderRepo:    traderRepo,
		planRepo:      planRepo,
		copyTradeRepo: copyTradeRepo,
		accountRepo:   accountRepo,
	}
}

func (s *CatalogServiceImpl) ListTraders(ctx context.Context, traceID string) ([]views.TraderView, error) {
	traders, err := s.traderRepo.ListActive(ctx, s.db)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	out := make([]views.TraderView, 0, len(traders))
	for _, t := range traders {
		out = append(out, t.ToView())
	}
	return out, nil
}

// CreateTrader adds an active trader with no followers or trades yet.
func (s *CatalogServiceImpl) CreateTrader(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.TraderRequest) (views.TraderView, error) {
	if err := requireAdmin(principal); err != nil {
		return views.TraderView{}, err
	}
	if !req.Risk.Valid() {
		return views.TraderView{}, pkg.NewValidationError("risk must be Low, Medium or High")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return views.TraderView{}, pkg.NewValidationError("name is required")
	}

	var trader models.Trader
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		trader, err = s.traderRepo.Create(ctx, tx, models.Trader{
			Name:    name,
			Image:   req.Image,
			Profit:  strings.TrimSpace(req.Profit),
			Risk:    req.Risk,
			WinRate: strings.TrimSpace(req.WinRate),
		})
		return err
	})
	if err != nil {
		return views.TraderView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("trader created",
		zap.String(pkg.TraceId, traceID),
		zap.String("trader_id", trader.ID.String()),
		zap.String("admin_id", principal.AccountID.String()))
	return trader.ToView(), nil
}

func (s *CatalogServiceImpl) ListPlans(ctx context.Context, traceID string) ([]views.PlanView, error) {
	plans, err := s.planRepo.ListActive(ctx, s.db)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	out := make([]views.PlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.ToView())
	}
	return out, nil
}

func (s *CatalogServiceImpl) CreatePlan(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.PlanRequest) (views.PlanView, error) {
	if err := requireAdmin(principal); err != nil {
		return views.PlanView{}, err
	}
	if req.Price.IsNegative() {
		return views.PlanView{}, pkg.NewValidationError("price must not be negative")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return views.PlanView{}, pkg.NewValidationError("name is required")
	}

	var plan models.Plan
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		plan, err = s.planRepo.Create(ctx, tx, models.Plan{
			Name:     name,
			Price:    req.Price.Round(2),
			Duration: strings.TrimSpace(req.Duration),
			Features: req.Features,
			Popular:  req.Popular,
		})
		return err
	})
	if pkg.IsUniqueViolation(err) {
		return views.PlanView{}, pkg.NewAppError(pkg.ErrSQLDuplicateCode, "plan name already exists", err)
	}
	if err != nil {
		return views.PlanView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("plan created",
		zap.String(pkg.TraceId, traceID),
		zap.String("plan", plan.Name),
		zap.String("admin_id", principal.AccountID.String()))
	return plan.ToView(), nil
}

// StartCopy opens a simulated position on an active trader. The amount may not exceed the
// caller's balance but is never debited.
func (s *CatalogServiceImpl) StartCopy(ctx context.Context, traceID string, principal views.Principal, req ledgerviews.CopyTradeRequest) (views.CopyTradeView, error) {
	traderID, err := uuid.Parse(req.TraderID)
	if err != nil {
		return views.CopyTradeView{}, pkg.NewValidationError("invalid trader id")
	}
	if !req.Amount.IsPositive() {
		return views.CopyTradeView{}, pkg.NewValidationError("amount must be greater than zero")
	}
	amount := req.Amount.Round(2)

	trader, err := s.traderRepo.FindByID(ctx, s.db, traderID)
	if err != nil {
		return views.CopyTradeView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if !trader.IsActive {
		return views.CopyTradeView{}, pkg.NewNotFoundError("trader not found")
	}

	var copyTrade models.CopyTrade
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		account, err := s.accountRepo.FindByIDForUpdate(ctx, tx, principal.AccountID)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(amount) {
			return pkg.NewInsufficientFundsError()
		}
		copyTrade, err = s.copyTradeRepo.Create(ctx, tx, models.CopyTrade{
			OwnerID:  account.ID,
			TraderID: trader.ID,
			Amount:   amount,
		})
		return err
	})
	if pkg.IsUniqueViolation(err) {
		return views.CopyTradeView{}, pkg.NewAppError(pkg.ErrSQLDuplicateCode, "already copying this trader", err)
	}
	if err != nil {
		return views.CopyTradeView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("copy trade started",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.AccountId, principal.AccountID.String()),
		zap.String("trader_id", trader.ID.String()),
		zap.String("amount", amount.StringFixed(2)))
	return copyTrade.ToView(), nil
}

func (s *CatalogServiceImpl) ListCopies(ctx context.Context, traceID string, principal views.Principal, limit, offset int) ([]views.CopyTradeView, error) {
	copies, err := s.copyTradeRepo.ListByOwner(ctx, s.db, principal.AccountID, limit, offset)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.logger, err)
	}
	out := make([]views.CopyTradeView, 0, len(copies))
	for _, c := range copies {
		out = append(out, c.ToView())
	}
	return out, nil
}

// StopCopy closes one of the caller's active positions. Another user's position reads as not found.
func (s *CatalogServiceImpl) StopCopy(ctx context.Context, traceID string, principal views.Principal, id uuid.UUID) (views.CopyTradeView, error) {
	var copyTrade models.CopyTrade
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		copyTrade, err = s.copyTradeRepo.Stop(ctx, tx, id, principal.AccountID)
		return err
	})
	if err != nil {
		return views.CopyTradeView{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	s.logger.Info("copy trade stopped",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.AccountId, principal.AccountID.String()),
		zap.String("copy_trade_id", id.String()))
	return copyTrade.ToView(), nil
}
