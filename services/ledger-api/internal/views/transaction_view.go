package views

import "encoding/json"

// TransactionRequest is the raw intake payload. Amount stays undecoded so the service can report
// missing, non-numeric and non-positive values in validation order.
type TransactionRequest struct {
	Type    string          `json:"type"`
	Amount  json.RawMessage `json:"amount"`
	Method  *string         `json:"method"`
	Asset   *string         `json:"asset"`
	Details json.RawMessage `json:"details"`
}
