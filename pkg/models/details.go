package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
)

// Details is the type-specific payload of a transaction. Only withdrawals carry one today.
type Details interface {
	Kind() pkg.TransactionType
}

// WithdrawalDetails is the payout destination. Crypto rails use Address; bank rails may use Account.
type WithdrawalDetails struct {
	Address string `json:"address,omitempty"`
	Account string `json:"account,omitempty"`
	Network string `json:"network,omitempty"`
}

func (WithdrawalDetails) Kind() pkg.TransactionType { return pkg.TransactionTypeWithdrawal }

// Destination returns the address, or the bank account when no address is set.
func (w WithdrawalDetails) Destination() string {
	if strings.TrimSpace(w.Address) != "" {
		return strings.TrimSpace(w.Address)
	}
	return strings.TrimSpace(w.Account)
}

// ParseDetails decodes raw into the variant for txType. An absent, null or empty object payload yields nil.
func ParseDetails(txType pkg.TransactionType, raw []byte) (Details, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil, nil
	}
	switch txType {
	case pkg.TransactionTypeWithdrawal:
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		var d WithdrawalDetails
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("invalid withdrawal details: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("details are not accepted for %s transactions", txType)
	}
}

// MarshalDetails encodes d for the JSONB column; nil stays SQL NULL.
func MarshalDetails(d Details) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}
