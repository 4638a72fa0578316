package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Quantity is an integer the fee service may send as a JSON number, a
// decimal string or a 0x-prefixed hex string.
type Quantity struct {
	*big.Int
}

// NewQuantity wraps an int64
func NewQuantity(v int64) Quantity {
	return Quantity{Int: big.NewInt(v)}
}

// BigInt returns the value, zero when unset
func (q Quantity) BigInt() *big.Int {
	if q.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(q.Int)
}

// UnmarshalJSON implements json.Unmarshaler
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		q.Int = nil
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		v, err := hexutil.DecodeBig(strings.ToLower(text))
		if err != nil {
			return fmt.Errorf("invalid hex quantity %q: %w", text, err)
		}
		q.Int = v
		return nil
	}

	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return fmt.Errorf("invalid quantity %q", text)
	}
	q.Int = v
	return nil
}

// MarshalJSON writes the value as a JSON number
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.BigInt().String()), nil
}

// FeeTiers carries the three fee levels the service offers
type FeeTiers struct {
	Low    Quantity `json:"low"`
	Medium Quantity `json:"medium"`
	High   Quantity `json:"high"`
}

// FeeQuote is the result of getTransactionFees. UTXO chains fill Fees with
// per-transaction fees in satoshi; account chains fill Gas and GasPrice.
type FeeQuote struct {
	Fees     *FeeTiers `json:"fees,omitempty"`
	Gas      Quantity  `json:"gas"`
	GasPrice *FeeTiers `json:"gasPrice,omitempty"`
}

// FeeParams is forwarded to createRawTransaction
type FeeParams struct {
	Fees     string `json:"fees,omitempty"`
	Gas      uint64 `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
}

// IsZero reports whether no fee parameters are set
func (p FeeParams) IsZero() bool {
	return p.Fees == "" && p.Gas == 0 && p.GasPrice == ""
}
