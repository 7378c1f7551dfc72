package views

import "github.com/shopspring/decimal"

type AdminStats struct {
	TotalUsers           int64           `json:"totalUsers"`
	TotalTransactions    int64           `json:"totalTransactions"`
	PendingTransactions  int64           `json:"pendingTransactions"`
	TotalPlatformBalance decimal.Decimal `json:"totalPlatformBalance"`
	TotalTraders         int64           `json:"totalTraders"`
	TotalPlans           int64           `json:"totalPlans"`
}

type DashboardStats struct {
	Balance             decimal.Decimal `json:"balance"`
	TotalTrades         int64           `json:"totalTrades"`
	PendingTransactions int64           `json:"pendingTransactions"`
	ActiveCopies        int64           `json:"activeCopies"`
	Profit              decimal.Decimal `json:"profit"`
	ProfitPercentage    decimal.Decimal `json:"profitPercentage"`
}
