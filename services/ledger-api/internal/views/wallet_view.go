package views

import "encoding/json"

// WalletRequest sets a deposit destination. Address is a string, or an object for bank rails.
type WalletRequest struct {
	Address json.RawMessage `json:"address"`
}
