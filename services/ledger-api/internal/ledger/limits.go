package ledger

import (
	"fmt"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/configs"
	"github.com/shopspring/decimal"
)

// Limits are the per-request amount bounds for deposits and withdrawals, inclusive at both ends.
type Limits struct {
	MinDeposit    decimal.Decimal
	MaxDeposit    decimal.Decimal
	MinWithdrawal decimal.Decimal
	MaxWithdrawal decimal.Decimal
}

func DefaultLimits() *Limits {
	return &Limits{
		MinDeposit:    decimal.NewFromInt(250),
		MaxDeposit:    decimal.NewFromInt(1000000),
		MinWithdrawal: decimal.NewFromInt(100),
		MaxWithdrawal: decimal.NewFromInt(100000),
	}
}

// NewLimits parses the configured bounds and rejects inverted or non-positive ranges.
func NewLimits(cfg *configs.Config) (*Limits, error) {
	values := make([]decimal.Decimal, 4)
	for i, raw := range []string{cfg.MinDeposit, cfg.MaxDeposit, cfg.MinWithdrawal, cfg.MaxWithdrawal} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid amount limit %q: %w", raw, err)
		}
		values[i] = d
	}
	limits := &Limits{MinDeposit: values[0], MaxDeposit: values[1], MinWithdrawal: values[2], MaxWithdrawal: values[3]}
	if err := limits.validate(); err != nil {
		return nil, err
	}
	return limits, nil
}

func (l *Limits) validate() error {
	if !l.MinDeposit.IsPositive() || l.MinDeposit.GreaterThan(l.MaxDeposit) {
		return fmt.Errorf("invalid deposit limits: [%s, %s]", l.MinDeposit, l.MaxDeposit)
	}
	if !l.MinWithdrawal.IsPositive() || l.MinWithdrawal.GreaterThan(l.MaxWithdrawal) {
		return fmt.Errorf("invalid withdrawal limits: [%s, %s]", l.MinWithdrawal, l.MaxWithdrawal)
	}
	return nil
}

// Check returns a validation error when amount falls outside the bounds for txType. Trades are unbounded.
func (l *Limits) Check(txType pkg.TransactionType, amount decimal.Decimal) error {
	switch txType {
	case pkg.TransactionTypeDeposit:
		if amount.LessThan(l.MinDeposit) {
			return pkg.NewValidationError(fmt.Sprintf("minimum deposit is %s", l.MinDeposit.StringFixed(2)))
		}
		if amount.GreaterThan(l.MaxDeposit) {
			return pkg.NewValidationError(fmt.Sprintf("maximum deposit is %s", l.MaxDeposit.StringFixed(2)))
		}
	case pkg.TransactionTypeWithdrawal:
		if amount.LessThan(l.MinWithdrawal) {
			return pkg.NewValidationError(fmt.Sprintf("minimum withdrawal is %s", l.MinWithdrawal.StringFixed(2)))
		}
		if amount.GreaterThan(l.MaxWithdrawal) {
			return pkg.NewValidationError(fmt.Sprintf("maximum withdrawal is %s", l.MaxWithdrawal.StringFixed(2)))
		}
	}
	return nil
}
