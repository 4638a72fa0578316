package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapRequest represents a user's swap or send command
type SwapRequest struct {
	Amount      string
	SourceToken string
	DestToken   string
	// Receiver is set for send commands, where the target is an address
	Receiver string
}

// SwapQuote is the provider's current rate and deposit limits for a pair
type SwapQuote struct {
	Rate                decimal.Decimal `json:"rate"`
	LimitMinDepositCoin decimal.Decimal `json:"limitMinDepositCoin"`
	LimitMaxDepositCoin decimal.Decimal `json:"limitMaxDepositCoin"`
}

// SwapAddress is an address on one side of an order
type SwapAddress struct {
	Address string `json:"address"`
	Tag     string `json:"tag,omitempty"`
}

// SwapOrder is a placed order. The deposit goes to ExchangeAddress.
type SwapOrder struct {
	OrderID            string      `json:"orderId"`
	DepositCoin        string      `json:"depositCoin"`
	DestinationCoin    string      `json:"destinationCoin"`
	DepositCoinAmount  string      `json:"depositCoinAmount"`
	ExchangeAddress    SwapAddress `json:"exchangeAddress"`
	DestinationAddress SwapAddress `json:"destinationAddress"`
	RefundAddress      SwapAddress `json:"refundAddress"`
}

// OrderRequest carries what is needed to place an order
type OrderRequest struct {
	DepositCoin        string
	DestinationCoin    string
	DepositCoinAmount  decimal.Decimal
	DestinationAddress SwapAddress
	RefundAddress      SwapAddress
}

// Swap progress states as reported for a placed order
const (
	SwapPending   = "PENDING"
	SwapSucceeded = "SUCCESS"
	SwapFailed    = "FAILED"
	SwapRefunded  = "REFUNDED"
)

// SwapProgress is where a placed order stands on the provider side
type SwapProgress struct {
	OrderID       string    `json:"orderId"`
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updatedAt"`
	DepositHashes []string  `json:"depositHashes,omitempty"`
	PayoutHashes  []string  `json:"payoutHashes,omitempty"`
	AmountIn      string    `json:"amountIn,omitempty"`
	AmountOut     string    `json:"amountOut,omitempty"`
}

// Final reports whether the order can no longer change
func (p *SwapProgress) Final() bool {
	switch p.Status {
	case SwapSucceeded, SwapFailed, SwapRefunded:
		return true
	default:
		return false
	}
}
