package views

import (
	"time"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/shopspring/decimal"
)

type TraderView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Image     *string       `json:"image,omitempty"`
	Profit    string        `json:"profit"`
	Followers int           `json:"followers"`
	Risk      pkg.RiskLevel `json:"risk"`
	Trades    int           `json:"trades"`
	WinRate   string        `json:"winRate"`
	CreatedAt time.Time     `json:"createdAt"`
}

type PlanView struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Duration string          `json:"duration"`
	Features []string        `json:"features"`
	Popular  bool            `json:"popular"`
}

type CopyTradeView struct {
	ID            string              `json:"id"`
	TraderID      string              `json:"traderId"`
	Amount        decimal.Decimal     `json:"amount"`
	CurrentProfit decimal.Decimal     `json:"currentProfit"`
	Status        pkg.CopyTradeStatus `json:"status"`
	StartedAt     time.Time           `json:"startedAt"`
	EndedAt       *time.Time          `json:"endedAt,omitempty"`
}
