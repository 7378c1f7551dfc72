package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
)

const (
	traderColumns    = `id, name, image, profit, followers, risk, trades, win_rate, is_active, created_at`
	planColumns      = `id, name, price, duration, features, popular, is_active, created_at`
	copyTradeColumns = `id, owner_id, trader_id, amount, current_profit, status, started_at, ended_at`

	// catalogListCap bounds the public catalog listings.
	catalogListCap = 100
)

// TraderRepository stores the strategy providers users can copy.
type TraderRepository interface {
	Create(ctx context.Context, q database.Querier, trader models.Trader) (models.Trader, error)
	FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Trader, error)
	// ListActive returns active traders, most followed first.
	ListActive(ctx context.Context, q database.Querier) ([]models.Trader, error)
	CountActive(ctx context.Context, q database.Querier) (int64, error)
}

// PlanRepository stores the subscription plans shown on the pricing page.
type PlanRepository interface {
	// Create inserts a plan. A duplicate name surfaces as a postgres unique_violation.
	Create(ctx context.Context, q database.Querier, plan models.Plan) (models.Plan, error)
	// ListActive returns active plans, cheapest first.
	ListActive(ctx context.Context, q database.Querier) ([]models.Plan, error)
	CountActive(ctx context.Context, q database.Querier) (int64, error)
}

// CopyTradeRepository stores simulated copy positions. An owner holds at most one active
// position per trader; a second one surfaces as a postgres unique_violation.
type CopyTradeRepository interface {
	Create(ctx context.Context, q database.Querier, copyTrade models.CopyTrade) (models.CopyTrade, error)
	ListByOwner(ctx context.Context, q database.Querier, ownerID uuid.UUID, limit, offset int) ([]models.CopyTrade, error)
	// Stop moves an owner's active position to stopped; a stopped one is a validation error.
	Stop(ctx context.Context, q database.Querier, id, ownerID uuid.UUID) (models.CopyTrade, error)
	ActiveSummary(ctx context.Context, q database.Querier, ownerID uuid.UUID) (models.CopySummary, error)
}

type TraderRepositoryImpl struct {
}

func NewTraderRepository() TraderRepository {
	return &TraderRepositoryImpl{}
}

func (t TraderRepositoryImpl) Create(ctx context.Context, q database.Querier, trader models.Trader) (models.Trader, error) {
	if trader.ID == uuid.Nil {
		trader.ID = uuid.New()
	}
	return scanTrader(q.QueryRow(ctx, `
		INSERT INTO traders (id, name, image, profit, followers, risk, trades, win_rate, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NOW())
		RETURNING `+traderColumns,
		trader.ID, trader.Name, trader.Image, trader.Profit, trader.Followers, trader.Risk, trader.Trades, trader.WinRate))
}

func (t TraderRepositoryImpl) FindByID(ctx context.Context, q database.Querier, id uuid.UUID) (models.Trader, error) {
	trader, err := scanTrader(q.QueryRow(ctx, `SELECT `+traderColumns+` FROM traders WHERE id = $1`, id))
	return trader, notFound(err, "trader not found")
}

func (t TraderRepositoryImpl) ListActive(ctx context.Context, q database.Querier) ([]models.Trader, error) {
	rows, err := q.Query(ctx, `SELECT `+traderColumns+` FROM traders WHERE is_active
		ORDER BY followers DESC, created_at LIMIT $1`, catalogListCap)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Trader, error) { return scanTrader(row) })
}

func (t TraderRepositoryImpl) CountActive(ctx context.Context, q database.Querier) (int64, error) {
	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM traders WHERE is_active`).Scan(&count)
	return count, err
}

type PlanRepositoryImpl struct {
}

func NewPlanRepository() PlanRepository {
	return &PlanRepositoryImpl{}
}

func (p PlanRepositoryImpl) Create(ctx context.Context, q database.Querier, plan models.Plan) (models.Plan, error) {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.Features == nil {
		plan.Features = []string{}
	}
	return scanPlan(q.QueryRow(ctx, `
		INSERT INTO plans (id, name, price, duration, features, popular, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())
		RETURNING `+planColumns,
		plan.ID, plan.Name, plan.Price, plan.Duration, plan.Features, plan.Popular))
}

func (p PlanRepositoryImpl) ListActive(ctx context.Context, q database.Querier) ([]models.Plan, error) {
	rows, err := q.Query(ctx, `SELECT `+planColumns+` FROM plans WHERE is_active
		ORDER BY price, name LIMIT $1`, catalogListCap)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Plan, error) { return scanPlan(row) })
}

func (p PlanRepositoryImpl) CountActive(ctx context.Context, q database.Querier) (int64, error) {
	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM plans WHERE is_active`).Scan(&count)
	return count, err
}

type CopyTradeRepositoryImpl struct {
}

func NewCopyTradeRepository() CopyTradeRepository {
	return &CopyTradeRepositoryImpl{}
}

func (c CopyTradeRepositoryImpl) Create(ctx context.Context, q database.Querier, copyTrade models.CopyTrade) (models.CopyTrade, error) {
	if !copyTrade.Amount.IsPositive() {
		return models.CopyTrade{}, pkg.NewValidationError("amount must be greater than zero")
	}
	if copyTrade.ID == uuid.Nil {
		copyTrade.ID = uuid.New()
	}
	return scanCopyTrade(q.QueryRow(ctx, `
		INSERT INTO copy_trades (id, owner_id, trader_id, amount, current_profit, status, started_at)
		VALUES ($1, $2, $3, $4, $5, 'active', NOW())
		RETURNING `+copyTradeColumns,
		copyTrade.ID, copyTrade.OwnerID, copyTrade.TraderID, copyTrade.Amount, copyTrade.CurrentProfit))
}

func (c CopyTradeRepositoryImpl) ListByOwner(ctx context.Context, q database.Querier, ownerID uuid.UUID, limit, offset int) ([]models.CopyTrade, error) {
	rows, err := q.Query(ctx, `SELECT `+copyTradeColumns+` FROM copy_trades WHERE owner_id = $1
		ORDER BY started_at DESC, id LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CopyTrade, error) { return scanCopyTrade(row) })
}

func (c CopyTradeRepositoryImpl) Stop(ctx context.Context, q database.Querier, id, ownerID uuid.UUID) (models.CopyTrade, error) {
	copyTrade, err := scanCopyTrade(q.QueryRow(ctx, `
		UPDATE copy_trades SET status = 'stopped', ended_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND status = 'active'
		RETURNING `+copyTradeColumns, id, ownerID))
	if !errors.Is(err, pgx.ErrNoRows) {
		return copyTrade, err
	}
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM copy_trades WHERE id = $1 AND owner_id = $2)`, id, ownerID).Scan(&exists); err != nil {
		return models.CopyTrade{}, err
	}
	if !exists {
		return models.CopyTrade{}, pkg.NewNotFoundError("copy trade not found")
	}
	return models.CopyTrade{}, pkg.NewValidationError("copy trade already stopped")
}

func (c CopyTradeRepositoryImpl) ActiveSummary(ctx context.Context, q database.Querier, ownerID uuid.UUID) (models.CopySummary, error) {
	var summary models.CopySummary
	err := q.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(current_profit), 0) FROM copy_trades
		WHERE owner_id = $1 AND status = 'active'`, ownerID).Scan(&summary.ActiveCopies, &summary.Profit)
	return summary, err
}

func scanTrader(row pgx.Row) (models.Trader, error) {
	var t models.Trader
	err := row.Scan(&t.ID, &t.Name, &t.Image, &t.Profit, &t.Followers, &t.Risk, &t.Trades, &t.WinRate, &t.IsActive, &t.CreatedAt)
	return t, err
}

func scanPlan(row pgx.Row) (models.Plan, error) {
	var p models.Plan
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Duration, &p.Features, &p.Popular, &p.IsActive, &p.CreatedAt)
	return p, err
}

func scanCopyTrade(row pgx.Row) (models.CopyTrade, error) {
	var c models.CopyTrade
	err := row.Scan(&c.ID, &c.OwnerID, &c.TraderID, &c.Amount, &c.CurrentProfit, &c.Status, &c.StartedAt, &c.EndedAt)
	return c, err
}
