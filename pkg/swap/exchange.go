package swap

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grinry/rwallet/pkg/fee"
	"github.com/grinry/rwallet/pkg/logger"
	"github.com/grinry/rwallet/pkg/transaction"
	"github.com/grinry/rwallet/pkg/types"
)

// ErrNotReady is returned when Exchange is called while a readiness check fails
var ErrNotReady = errors.New("exchange not ready")

// Exchange places an order for the current source amount and pays its
// deposit address through the transaction pipeline. Failures are reported
// to the notifier as well as returned.
func (e *Engine) Exchange(ctx context.Context, estimator *fee.Estimator, service transaction.Service) (*types.Completion, error) {
	if status := e.ExchangeStatus(); !status.Ready() {
		return nil, fmt.Errorf("%w: %s", ErrNotReady, status.ErrorKey)
	}

	e.mu.Lock()
	source, dest := *e.state.Source, *e.state.Dest
	amount := e.state.SourceAmount.Decimal
	e.state.Loading = true
	e.mu.Unlock()

	completion, err := e.exchange(ctx, source, dest, amount, estimator, service)

	e.mu.Lock()
	e.state.Loading = false
	e.mu.Unlock()

	e.metrics.IncExchange(source.Symbol, err)
	if err != nil {
		logger.Error("exchange failed", zap.String("source", source.Symbol), zap.String("dest", dest.Symbol), zap.Error(err))
		e.notifier.AddNotification(NotificationFor(err))
		return nil, err
	}
	return completion, nil
}

func (e *Engine) exchange(ctx context.Context, source, dest types.Currency, amount decimal.Decimal, estimator *fee.Estimator, service transaction.Service) (*types.Completion, error) {
	order, err := e.quotes.PlaceOrder(ctx, types.OrderRequest{
		DepositCoin:        source.CoinID(),
		DestinationCoin:    dest.CoinID(),
		DepositCoinAmount:  amount,
		DestinationAddress: types.SwapAddress{Address: dest.Address},
		RefundAddress:      types.SwapAddress{Address: source.Address},
	})
	if err != nil {
		return nil, err
	}
	if order.ExchangeAddress.Address == "" {
		return nil, fmt.Errorf("order %s has no exchange address", order.OrderID)
	}

	logger.Info("swap order placed",
		zap.String("order_id", order.OrderID),
		zap.String("exchange_address", order.ExchangeAddress.Address))

	estimate, err := estimator.Estimate(ctx, source, "", amount)
	if err != nil {
		return nil, err
	}

	pipeline, err := transaction.New(types.TransferIntent{
		Sender:   source,
		Receiver: order.ExchangeAddress.Address,
		Value:    amount,
		Memo:     order.ExchangeAddress.Tag,
		Fee:      estimate.Params,
		Order:    order,
	}, service)
	if err != nil {
		return nil, err
	}

	hash, err := pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}

	return &types.Completion{
		Symbol:  source.Symbol,
		Type:    source.NetType,
		Hash:    hash,
		OrderID: order.OrderID,
	}, nil
}
