// Package chain holds the per-family transaction adapters used by the
// transaction pipeline.
package chain

import (
	"context"

	"github.com/grinry/rwallet/pkg/types"
)

// Adapter is the capability set every chain family provides. Adapters do
// not recover from errors; failures are returned to the pipeline.
type Adapter interface {
	// Family reports the chain family served by the adapter
	Family() types.Family

	// RawTransactionParams builds the createRawTransaction request
	RawTransactionParams(req RawRequest) (any, error)

	// Sign signs the builder's raw transaction with the sender's key
	Sign(ctx context.Context, req SignRequest) (types.SignedTransaction, error)

	// BroadcastParams builds the sendSignedTransaction request
	BroadcastParams(req BroadcastRequest) any

	// TxHash extracts the transaction hash from the broadcast result
	TxHash(result types.BroadcastResult) (string, error)
}

// RawRequest is the input for RawTransactionParams. Value is a 0x-prefixed
// base unit quantity.
type RawRequest struct {
	Symbol   string
	NetType  string
	Sender   string
	Receiver string
	Value    string
	Data     string
	Memo     string
	Fee      types.FeeParams
}

// SignRequest is the input for Sign
type SignRequest struct {
	Raw        types.RawTransaction
	PrivateKey string
	NetType    string
}

// BroadcastRequest is the input for BroadcastParams
type BroadcastRequest struct {
	Signed  types.SignedTransaction
	NetType string
	Memo    string
	Order   *types.SwapOrder
}

// broadcastParams is the sendSignedTransaction payload shared by both families
type broadcastParams struct {
	Name       string           `json:"name"`
	Hash       string           `json:"hash"`
	Type       string           `json:"type"`
	Memo       string           `json:"memo,omitempty"`
	Coinswitch *types.SwapOrder `json:"coinswitch,omitempty"`
}

var (
	utxo    Adapter = &UTXOAdapter{}
	account Adapter = &AccountAdapter{}
)

// Resolve returns the adapter for a currency symbol, or nil when the symbol
// is not supported. It is the only place symbols are mapped to adapters.
func Resolve(symbol string) Adapter {
	spec, ok := types.LookupCurrency(symbol)
	if !ok {
		return nil
	}

	switch spec.Family {
	case types.FamilyUTXO:
		return utxo
	case types.FamilyAccount:
		return account
	default:
		return nil
	}
}
