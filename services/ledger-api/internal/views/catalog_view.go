package views

import (
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/shopspring/decimal"
)

type TraderRequest struct {
	Name    string        `json:"name" binding:"required,max=120"`
	Image   *string       `json:"image" binding:"omitempty,url"`
	Profit  string        `json:"profit" binding:"required,max=20"`
	Risk    pkg.RiskLevel `json:"risk" binding:"required"`
	WinRate string        `json:"winRate" binding:"required,max=20"`
}

type PlanRequest struct {
	Name     string          `json:"name" binding:"required,max=80"`
	Price    decimal.Decimal `json:"price"`
	Duration string          `json:"duration" binding:"required,max=40"`
	Features []string        `json:"features" binding:"max=20,dive,required,max=200"`
	Popular  bool            `json:"popular"`
}

// CopyTradeRequest opens a simulated position; Amount is notional and never debited.
type CopyTradeRequest struct {
	TraderID string          `json:"traderId" binding:"required,uuid"`
	Amount   decimal.Decimal `json:"amount"`
}
