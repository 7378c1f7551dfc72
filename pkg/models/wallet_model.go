package models

import (
	"encoding/json"
	"time"
)

// WalletAddress maps to table `wallet_addresses`; rows override the built-in deposit destinations.
type WalletAddress struct {
	Method    string
	Address   json.RawMessage
	UpdatedAt time.Time
}
