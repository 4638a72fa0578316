// Package units converts between human coin amounts and chain base units.
//
// BTC uses 10^8 satoshi per coin; the Rootstock currencies use 10^18 wei.
// Conversions are exact: an amount with more fractional digits than the
// currency supports is rejected instead of truncated.
package units

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/grinry/rwallet/pkg/types"
)

var amountPattern = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)

// Parse reads a plain decimal literal such as "0.01" or "12". Signs,
// exponents and thousands separators are rejected.
func Parse(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if !amountPattern.MatchString(text) {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", types.ErrInvalidAmount, text)
	}
	if strings.HasPrefix(text, ".") {
		text = "0" + text
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(text, "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", types.ErrInvalidAmount, err)
	}
	return d, nil
}

// Decimals returns the base unit exponent for a symbol
func Decimals(symbol string) (int32, error) {
	spec, ok := types.LookupCurrency(symbol)
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrUnsupportedCurrency, symbol)
	}
	return spec.BaseDecimals, nil
}

// ToBaseUnits converts a coin amount to base units
func ToBaseUnits(symbol string, amount decimal.Decimal) (*big.Int, error) {
	decimals, err := Decimals(symbol)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s is negative", types.ErrInvalidAmount, amount)
	}
	if !amount.Equal(amount.Truncate(decimals)) {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places for %s",
			types.ErrInvalidAmount, amount, decimals, strings.ToUpper(symbol))
	}
	return amount.Shift(decimals).BigInt(), nil
}

// ToBaseUnitsHex converts a coin amount to a 0x-prefixed base unit quantity
func ToBaseUnitsHex(symbol string, amount decimal.Decimal) (string, error) {
	v, err := ToBaseUnits(symbol, amount)
	if err != nil {
		return "", err
	}
	return hexutil.EncodeBig(v), nil
}

// FromBaseUnits converts base units back to a coin amount
func FromBaseUnits(symbol string, amount *big.Int) (decimal.Decimal, error) {
	decimals, err := Decimals(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if amount == nil {
		return decimal.Zero, fmt.Errorf("%w: missing value", types.ErrInvalidAmount)
	}
	if amount.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%w: %s is negative", types.ErrInvalidAmount, amount)
	}
	return decimal.NewFromBigInt(amount, -decimals), nil
}

// ParseBaseUnits reads a base unit quantity in decimal or 0x hex form
func ParseBaseUnits(text string) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "0x") {
		v, err := hexutil.DecodeBig(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInvalidAmount, err)
		}
		return v, nil
	}
	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", types.ErrInvalidAmount, text)
	}
	return v, nil
}
