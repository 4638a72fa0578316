package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TransferIntent is what the user asked to send. Value is in coin units.
type TransferIntent struct {
	Sender   Currency
	Receiver string
	Value    decimal.Decimal
	Data     string
	Memo     string
	Fee      FeeParams
	Order    *SwapOrder
}

// RawTransaction is the unsigned transaction returned by the builder service.
// Its shape depends on the chain family.
type RawTransaction json.RawMessage

// SignedTransaction is the chain-specific signed payload
type SignedTransaction string

// BroadcastResult is the broadcaster's response
type BroadcastResult json.RawMessage

// MarshalJSON keeps the raw bytes as-is
func (r RawTransaction) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// MarshalJSON keeps the raw bytes as-is
func (r BroadcastResult) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// Completion is what a finished exchange reports to the caller
type Completion struct {
	Symbol  string `json:"symbol"`
	Type    string `json:"type"`
	Hash    string `json:"hash"`
	OrderID string `json:"orderId,omitempty"`
}
