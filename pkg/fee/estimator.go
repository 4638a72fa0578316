// Package fee turns remote fee quotes into a coin-denominated fee and the
// parameters the raw transaction builder expects.
package fee

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grinry/rwallet/pkg/logger"
	"github.com/grinry/rwallet/pkg/monitor"
	"github.com/grinry/rwallet/pkg/types"
	"github.com/grinry/rwallet/pkg/units"
)

// Request is the getTransactionFees input. Amount is a 0x base unit quantity.
type Request struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
	From   string `json:"sender"`
	To     string `json:"receiver"`
	Amount string `json:"value"`
}

// QuoteService returns fee quotes
type QuoteService interface {
	GetTransactionFees(ctx context.Context, req Request) (*types.FeeQuote, error)
}

// Estimate is a resolved fee
type Estimate struct {
	Fee    decimal.Decimal
	Params types.FeeParams
}

type cacheKey struct {
	symbol  string
	netType string
	from    string
	to      string
	amount  string
}

// Estimator resolves fees for one flow. Repeated estimates for the same
// amount reuse the last quote; any other amount replaces it.
type Estimator struct {
	fees    QuoteService
	cache   Slot[cacheKey, Estimate]
	metrics *monitor.Metrics
}

// Option configures an Estimator
type Option func(*Estimator)

// WithMetrics records cache outcomes on m instead of monitor.Default
func WithMetrics(m *monitor.Metrics) Option {
	return func(e *Estimator) {
		e.metrics = m
	}
}

// NewEstimator creates an estimator with an empty cache
func NewEstimator(fees QuoteService, opts ...Option) *Estimator {
	e := &Estimator{
		fees:    fees,
		metrics: monitor.Default,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate returns the medium-tier fee for sending amount from currency to
// the given receiver. An empty receiver quotes a send to the sender itself.
func (e *Estimator) Estimate(ctx context.Context, currency types.Currency, to string, amount decimal.Decimal) (Estimate, error) {
	if to == "" {
		to = currency.Address
	}

	symbol := strings.ToUpper(currency.Symbol)
	spec, ok := types.LookupCurrency(symbol)
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %s", types.ErrUnsupportedCurrency, currency.Symbol)
	}

	amountHex, err := units.ToBaseUnitsHex(symbol, amount)
	if err != nil {
		return Estimate{}, err
	}

	key := cacheKey{
		symbol:  symbol,
		netType: currency.NetType,
		from:    currency.Address,
		to:      to,
		amount:  amountHex,
	}
	if cached, ok := e.cache.Get(key); ok {
		e.metrics.IncFeeQuote(symbol, true)
		return cached, nil
	}
	e.metrics.IncFeeQuote(symbol, false)
	e.cache.Clear()

	quote, err := e.fees.GetTransactionFees(ctx, Request{
		Symbol: symbol,
		Type:   currency.NetType,
		From:   currency.Address,
		To:     to,
		Amount: amountHex,
	})
	if err != nil {
		return Estimate{}, err
	}

	var estimate Estimate
	switch spec.Family {
	case types.FamilyUTXO:
		estimate, err = utxoEstimate(symbol, quote)
	case types.FamilyAccount:
		estimate, err = accountEstimate(symbol, quote)
	default:
		err = fmt.Errorf("%w: %s", types.ErrUnsupportedCurrency, symbol)
	}
	if err != nil {
		return Estimate{}, err
	}

	logger.Debug("fee estimated",
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()),
		zap.String("fee", estimate.Fee.String()))

	e.cache.Put(key, estimate)
	return estimate, nil
}

// Reset drops the cached quote
func (e *Estimator) Reset() {
	e.cache.Clear()
}

func utxoEstimate(symbol string, quote *types.FeeQuote) (Estimate, error) {
	if quote == nil || quote.Fees == nil || quote.Fees.Medium.Int == nil {
		return Estimate{}, fmt.Errorf("fee quote for %s has no fees", symbol)
	}

	medium := quote.Fees.Medium.BigInt()
	fee, err := units.FromBaseUnits(symbol, medium)
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{
		Fee:    fee,
		Params: types.FeeParams{Fees: hexutil.EncodeBig(medium)},
	}, nil
}

func accountEstimate(symbol string, quote *types.FeeQuote) (Estimate, error) {
	if quote == nil || quote.GasPrice == nil || quote.GasPrice.Medium.Int == nil || quote.Gas.Int == nil {
		return Estimate{}, fmt.Errorf("fee quote for %s has no gas price", symbol)
	}

	gas := quote.Gas.BigInt()
	if !gas.IsUint64() {
		return Estimate{}, fmt.Errorf("fee quote for %s has invalid gas %s", symbol, gas)
	}
	gasPrice := quote.GasPrice.Medium.BigInt()

	fee, err := units.FromBaseUnits(symbol, new(big.Int).Mul(gas, gasPrice))
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{
		Fee: fee,
		Params: types.FeeParams{
			Gas:      gas.Uint64(),
			GasPrice: gasPrice.String(),
		},
	}, nil
}
