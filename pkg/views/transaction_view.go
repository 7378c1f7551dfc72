package views

import (
	"encoding/json"
	"time"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/shopspring/decimal"
)

type TransactionView struct {
	ID          string                `json:"id"`
	OwnerID     string                `json:"ownerId"`
	Type        pkg.TransactionType   `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Method      *string               `json:"method,omitempty"`
	Asset       *string               `json:"asset,omitempty"`
	Details     json.RawMessage       `json:"details,omitempty"`
	Status      pkg.TransactionStatus `json:"status"`
	ProcessedBy *string               `json:"processedBy,omitempty"`
	ProcessedAt *time.Time            `json:"processedAt,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
}
