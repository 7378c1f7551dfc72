package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/shopspring/decimal"
)

// Trader maps to table `traders`. Profit and WinRate are display labels, e.g. "+245%".
type Trader struct {
	ID        uuid.UUID
	Name      string
	Image     *string
	Profit    string
	Followers int
	Risk      pkg.RiskLevel
	Trades    int
	WinRate   string
	IsActive  bool
	CreatedAt time.Time
}

// Plan maps to table `plans`
type Plan struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Duration  string
	Features  []string
	Popular   bool
	IsActive  bool
	CreatedAt time.Time
}

// CopyTrade maps to table `copy_trades`; a simulated position following one trader.
type CopyTrade struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	TraderID      uuid.UUID
	Amount        decimal.Decimal
	CurrentProfit decimal.Decimal
	Status        pkg.CopyTradeStatus
	StartedAt     time.Time
	EndedAt       *time.Time
}

func (c CopyTrade) IsActive() bool {
	return c.Status == pkg.CopyTradeActive
}

// CopySummary aggregates an owner's active copy positions.
type CopySummary struct {
	ActiveCopies int64
	Profit       decimal.Decimal
}

func (t Trader) ToView() views.TraderView {
	return views.TraderView{
		ID:        t.ID.String(),
		Name:      t.Name,
		Image:     t.Image,
		Profit:    t.Profit,
		Followers: t.Followers,
		Risk:      t.Risk,
		Trades:    t.Trades,
		WinRate:   t.WinRate,
		CreatedAt: t.CreatedAt,
	}
}

func (p Plan) ToView() views.PlanView {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return views.PlanView{
		ID:       p.ID.String(),
		Name:     p.Name,
		Price:    p.Price,
		Duration: p.Duration,
		Features: features,
		Popular:  p.Popular,
	}
}

func (c CopyTrade) ToView() views.CopyTradeView {
	return views.CopyTradeView{
		ID:            c.ID.String(),
		TraderID:      c.TraderID.String(),
		Amount:        c.Amount,
		CurrentProfit: c.CurrentProfit,
		Status:        c.Status,
		StartedAt:     c.StartedAt,
		EndedAt:       c.EndedAt,
	}
}
