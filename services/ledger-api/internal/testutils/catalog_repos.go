package testutils

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/models"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/shopspring/decimal"
)

// TraderRepo mirrors repositories.TraderRepositoryImpl against a MemStore.
type TraderRepo struct {
	Store *MemStore
}

var _ repositories.TraderRepository = (*TraderRepo)(nil)

func (r *TraderRepo) Create(_ context.Context, q database.Querier, trader models.Trader) (models.Trader, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	if trader.ID == uuid.Nil {
		trader.ID = uuid.New()
	}
	trader.IsActive = true
	trader.CreatedAt = time.Now().UTC()
	s.traders[trader.ID] = trader
	if tx := txOf(q); tx != nil {
		id := trader.ID
		tx.onRollback(func() { delete(s.traders, id) })
	}
	return trader, nil
}

func (r *TraderRepo) FindByID(_ context.Context, _ database.Querier, id uuid.UUID) (models.Trader, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traders[id]
	if !ok {
		return models.Trader{}, pkg.NewNotFoundError("trader not found")
	}
	return t, nil
}

func (r *TraderRepo) ListActive(_ context.Context, _ database.Querier) ([]models.Trader, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Trader, 0, len(s.traders))
	for _, t := range s.traders {
		if t.IsActive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Followers != out[j].Followers {
			return out[i].Followers > out[j].Followers
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TraderRepo) CountActive(ctx context.Context, q database.Querier) (int64, error) {
	active, err := r.ListActive(ctx, q)
	return int64(len(active)), err
}

// Deactivate hides a trader from the catalog.
func (r *TraderRepo) Deactivate(id uuid.UUID) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.traders[id]; ok {
		t.IsActive = false
		s.traders[id] = t
	}
}

// PlanRepo mirrors repositories.PlanRepositoryImpl against a MemStore.
type PlanRepo struct {
	Store *MemStore
}

var _ repositories.PlanRepository = (*PlanRepo)(nil)

func (r *PlanRepo) Create(_ context.Context, q database.Querier, plan models.Plan) (models.Plan, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.plans {
		if existing.Name == plan.Name {
			return models.Plan{}, uniqueViolation("plans_name_key")
		}
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if plan.Features == nil {
		plan.Features = []string{}
	}
	plan.IsActive = true
	plan.CreatedAt = time.Now().UTC()
	s.plans[plan.ID] = plan
	if tx := txOf(q); tx != nil {
		id := plan.ID
		tx.onRollback(func() { delete(s.plans, id) })
	}
	return plan, nil
}

func (r *PlanRepo) ListActive(_ context.Context, _ database.Querier) ([]models.Plan, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *PlanRepo) CountActive(ctx context.Context, q database.Querier) (int64, error) {
	active, err := r.ListActive(ctx, q)
	return int64(len(active)), err
}

// CopyTradeRepo mirrors repositories.CopyTradeRepositoryImpl against a MemStore.
type CopyTradeRepo struct {
	Store *MemStore
}

var _ repositories.CopyTradeRepository = (*CopyTradeRepo)(nil)

func (r *CopyTradeRepo) Create(_ context.Context, q database.Querier, copyTrade models.CopyTrade) (models.CopyTrade, error) {
	if !copyTrade.Amount.IsPositive() {
		return models.CopyTrade{}, pkg.NewValidationError("amount must be greater than zero")
	}
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.copyTrades {
		if existing.OwnerID == copyTrade.OwnerID && existing.TraderID == copyTrade.TraderID && existing.IsActive() {
			return models.CopyTrade{}, uniqueViolation("copy_trades_one_active_per_trader")
		}
	}
	if copyTrade.ID == uuid.Nil {
		copyTrade.ID = uuid.New()
	}
	copyTrade.Status = pkg.CopyTradeActive
	copyTrade.StartedAt = time.Now().UTC()
	copyTrade.EndedAt = nil
	s.copyTrades[copyTrade.ID] = copyTrade
	if tx := txOf(q); tx != nil {
		id := copyTrade.ID
		tx.onRollback(func() { delete(s.copyTrades, id) })
	}
	return copyTrade, nil
}

func (r *CopyTradeRepo) ListByOwner(_ context.Context, _ database.Querier, ownerID uuid.UUID, limit, offset int) ([]models.CopyTrade, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CopyTrade, 0)
	for _, c := range s.copyTrades {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return page(out, limit, offset), nil
}

func (r *CopyTradeRepo) Stop(_ context.Context, q database.Querier, id, ownerID uuid.UUID) (models.CopyTrade, error) {
	s := r.Store
	if tx := txOf(q); tx != nil {
		tx.lock("copy_trade:" + id.String())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.copyTrades[id]
	if !ok || before.OwnerID != ownerID {
		return models.CopyTrade{}, pkg.NewNotFoundError("copy trade not found")
	}
	if !before.IsActive() {
		return models.CopyTrade{}, pkg.NewValidationError("copy trade already stopped")
	}
	after := before
	now := time.Now().UTC()
	after.Status = pkg.CopyTradeStopped
	after.EndedAt = &now
	s.copyTrades[id] = after
	if tx := txOf(q); tx != nil {
		tx.onRollback(func() { s.copyTrades[id] = before })
	}
	return after, nil
}

func (r *CopyTradeRepo) ActiveSummary(_ context.Context, _ database.Querier, ownerID uuid.UUID) (models.CopySummary, error) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := models.CopySummary{Profit: decimal.Zero}
	for _, c := range s.copyTrades {
		if c.OwnerID == ownerID && c.IsActive() {
			summary.ActiveCopies++
			summary.Profit = summary.Profit.Add(c.CurrentProfit)
		}
	}
	return summary, nil
}

// SetProfit marks a position to market, as the simulated feed would.
func (r *CopyTradeRepo) SetProfit(id uuid.UUID, profit string) {
	s := r.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.copyTrades[id]; ok {
		c.CurrentProfit = decimal.RequireFromString(profit)
		s.copyTrades[id] = c
	}
}
