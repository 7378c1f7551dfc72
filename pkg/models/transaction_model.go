package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/views"
	"github.com/shopspring/decimal"
)

// Transaction maps to table `transactions`
type Transaction struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Type           pkg.TransactionType
	Amount         decimal.Decimal
	Method         *string
	Asset          *string
	Details        Details
	Status         pkg.TransactionStatus
	ProcessedBy    *uuid.UUID
	ProcessedAt    *time.Time
	IdempotencyKey *uuid.UUID
	CreatedAt      time.Time
}

func (t Transaction) IsPending() bool {
	return t.Status == pkg.TransactionStatusPending
}

// BalanceDelta is the signed effect of approving t. Trades are record-only.
func (t Transaction) BalanceDelta() decimal.Decimal {
	switch t.Type {
	case pkg.TransactionTypeDeposit:
		return t.Amount
	case pkg.TransactionTypeWithdrawal:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}

func (t Transaction) ToView() views.TransactionView {
	v := views.TransactionView{
		ID:          t.ID.String(),
		OwnerID:     t.OwnerID.String(),
		Type:        t.Type,
		Amount:      t.Amount,
		Method:      t.Method,
		Asset:       t.Asset,
		Status:      t.Status,
		ProcessedAt: t.ProcessedAt,
		CreatedAt:   t.CreatedAt,
	}
	if raw, err := MarshalDetails(t.Details); err == nil && raw != nil {
		v.Details = raw
	}
	if t.ProcessedBy != nil {
		by := t.ProcessedBy.String()
		v.ProcessedBy = &by
	}
	return v
}

func (t Transaction) ToLedgerEvent(eventType pkg.EventType) views.LedgerEvent {
	e := views.LedgerEvent{
		ID:              uuid.NewString(),
		Type:            eventType,
		AccountID:       t.OwnerID.String(),
		TransactionID:   t.ID.String(),
		TransactionType: t.Type,
		Amount:          t.Amount.StringFixed(2),
		Status:          t.Status,
		OccurredAt:      time.Now().UTC(),
	}
	if t.ProcessedBy != nil {
		e.ProcessedBy = t.ProcessedBy.String()
	}
	return e
}
