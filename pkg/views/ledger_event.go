package views

import (
	"time"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
)

// LedgerEvent is published after a ledger mutation commits and consumed by the notifier.
type LedgerEvent struct {
	ID              string                `json:"id" validate:"required,uuid"`
	Type            pkg.EventType         `json:"type" validate:"required,oneof=account.registered transaction.created transaction.completed transaction.rejected"`
	AccountID       string                `json:"accountId" validate:"required,uuid"`
	TransactionID   string                `json:"transactionId,omitempty" validate:"omitempty,uuid"`
	TransactionType pkg.TransactionType   `json:"transactionType,omitempty"`
	Amount          string                `json:"amount,omitempty"`
	Status          pkg.TransactionStatus `json:"status,omitempty"`
	ProcessedBy     string                `json:"processedBy,omitempty"`
	Email           string                `json:"email,omitempty"`
	OccurredAt      time.Time             `json:"occurredAt" validate:"required"`
}
