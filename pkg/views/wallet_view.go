package views

import "encoding/json"

// WalletView is a deposit destination for one payment method. Address is a string or, for bank rails, an object.
type WalletView struct {
	Method  string          `json:"method"`
	Address json.RawMessage `json:"address"`
}
