package swap

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grinry/rwallet/pkg/fee"
	"github.com/grinry/rwallet/pkg/monitor"
	"github.com/grinry/rwallet/pkg/types"
)

func btcCurrency(balance string) types.Currency {
	return types.Currency{
		Symbol:  "BTC",
		NetType: types.Testnet,
		Address: "mzBc4XEFSdzCDcTxAgf6EZXgsZWpztRhef",
		Balance: decimal.RequireFromString(balance),
		UsdRate: decimal.RequireFromString("40000"),
	}
}

func rbtcCurrency(balance string) types.Currency {
	return types.Currency{
		Symbol:  "RBTC",
		NetType: types.Testnet,
		Address: "0x3dd03d7d6c3137f1eb7582ba5957b8a2e26f304a",
		Balance: decimal.RequireFromString(balance),
	}
}

func newTestEngine(t *testing.T, quotes QuoteService, opts ...Option) (*Engine, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	opts = append([]Option{WithMetrics(monitor.New())}, opts...)
	return NewEngine(quotes, notifier, opts...), notifier
}

func btcToRBTC(rate string) *staticQuotes {
	return &staticQuotes{quotes: map[string]*types.SwapQuote{
		"btc/rbtc": quote(rate, "0.001"),
	}}
}

func TestRefreshQuoteLimits(t *testing.T) {
	e, _ := newTestEngine(t, btcToRBTC("50"))

	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1.5"), rbtcCurrency("0")))

	st := e.State()
	assert.False(t, st.Loading)
	assert.True(t, st.Rate.Valid)
	assert.Equal(t, "50", st.Rate.Decimal.String())
	assert.Equal(t, "0.001", st.LimitMin.String())
	assert.Equal(t, "1.5", st.LimitMax.String())
	assert.Equal(t, "0.75", st.LimitHalf.String())
}

func TestEditAmountSource(t *testing.T) {
	e, _ := newTestEngine(t, btcToRBTC("50"))
	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")))

	e.EditAmount(SideSource, "0.01")

	st := e.State()
	require.True(t, st.DestAmount.Valid)
	assert.Equal(t, "0.5", st.DestAmount.Decimal.String())
	assert.Equal(t, "0.5", st.DestText)
	assert.True(t, st.IsBalanceEnough)
	assert.True(t, st.IsAmountInRange)
	assert.Equal(t, PresetNone, st.Preset)
}

func TestEditAmountRoundsToCounterpart(t *testing.T) {
	e, _ := newTestEngine(t, btcToRBTC("33.3333333"))
	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")))

	// RBTC shows 6 places
	e.EditAmount(SideSource, "0.1")
	st := e.State()
	assert.Equal(t, "3.333333", st.DestText)
	assert.True(t, st.DestAmount.Decimal.Equal(decimal.RequireFromString("0.1").Mul(st.Rate.Decimal).Round(6)))

	// BTC shows 8 places
	e.EditAmount(SideDest, "1")
	st = e.State()
	assert.Equal(t, "1", st.DestText)
	assert.Equal(t, "0.03", st.SourceText)
	assert.True(t, st.SourceAmount.Decimal.Equal(decimal.NewFromInt(1).DivRound(st.Rate.Decimal, 8)))
}

func TestEditAmountDestDivides(t *testing.T) {
	e, _ := newTestEngine(t, btcToRBTC("3"))
	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")))

	e.EditAmount(SideDest, "1")

	st := e.State()
	assert.Equal(t, "0.33333333", st.SourceText)
	assert.True(t, st.IsBalanceEnough)
}

func TestEditAmountUnparsable(t *testing.T) {
	e, _ := newTestEngine(t, btcToRBTC("50"))
	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")))
	e.EditAmount(SideSource, "0.01")

	for _, text := range []string{"abc", "", "0", "-1"} {
		e.EditAmount(SideSource, text)

		st := e.State()
		assert.False(t, st.SourceAmount.Valid, text)
		assert.False(t, st.DestAmount.Valid, text)
		assert.Equal(t, text, st.SourceText)
		assert.Empty(t, st.DestText, text)
		assert.False(t, st.IsBalanceEnough, text)
	}
}

func TestBalanceEnoughAtExactBalance(t *testing.T) {
	e, _ := newTestEngine(t, &staticQuotes{quotes: map[string]*types.SwapQuote{
		"btc/rbtc": quote("50", "0.00000001"),
	}})
	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("0.00000001"), rbtcCurrency("0")))

	e.EditAmount(SideSource, "0.00000001")
	st := e.State()
	assert.True(t, st.IsBalanceEnough)
	assert.True(t, st.IsAmountInRange)

	e.EditAmount(SideSource, "0.00000002")
	st = e.State()
	assert.False(t, st.IsBalanceEnough)
	assert.False(t, st.IsAmountInRange)
}

func TestEditBeforeQuote(t *testing.T) {
	e, _ := newTestEngine(t, btcToRBTC("50"))

	e.EditAmount(SideSource, "0.01")
	st := e.State()
	assert.True(t, st.SourceAmount.Valid)
	assert.False(t, st.DestAmount.Valid)
	assert.False(t, st.IsAmountInRange)

	// the entered amount survives the quote and the counterpart is derived
	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")))
	st = e.State()
	assert.Equal(t, "0.01", st.SourceText)
	assert.Equal(t, "0.5", st.DestText)
}

func TestQuoteKeepsEditedSide(t *testing.T) {
	quotes := btcToRBTC("50")
	e, _ := newTestEngine(t, quotes)
	ctx := context.Background()
	require.NoError(t, e.RefreshQuote(ctx, btcCurrency("1"), rbtcCurrency("0")))

	e.EditAmount(SideDest, "1")
	assert.Equal(t, "0.02", e.State().SourceText)

	quotes.quotes["btc/rbtc"] = quote("40", "0.001")
	require.NoError(t, e.RefreshQuote(ctx, btcCurrency("1"), rbtcCurrency("0")))

	st := e.State()
	assert.Equal(t, "1", st.DestText)
	assert.Equal(t, "0.025", st.SourceText)
}

func TestApplyPreset(t *testing.T) {
	e, _ := newTestEngine(t, btcToRBTC("50"))
	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")))

	tests := []struct {
		preset Preset
		source string
		dest   string
	}{
		{PresetMin, "0.001", "0.05"},
		{PresetHalf, "0.5", "25"},
		{PresetAll, "1", "50"},
	}
	for _, tt := range tests {
		t.Run(tt.preset.String(), func(t *testing.T) {
			require.NoError(t, e.ApplyPreset(tt.preset))

			st := e.State()
			assert.Equal(t, tt.preset, st.Preset)
			assert.Equal(t, tt.source, st.SourceText)
			assert.Equal(t, tt.dest, st.DestText)
			assert.True(t, st.IsBalanceEnough)
			assert.True(t, st.IsAmountInRange)
		})
	}

	e.EditAmount(SideSource, "0.2")
	assert.Equal(t, PresetNone, e.State().Preset)

	assert.Error(t, e.ApplyPreset(Preset(7)))
}

func TestFeeReservation(t *testing.T) {
	fees := &feeService{quote: &types.FeeQuote{Fees: &types.FeeTiers{Medium: types.NewQuantity(2000)}}}
	estimator := fee.NewEstimator(fees, fee.WithMetrics(monitor.New()))

	e, _ := newTestEngine(t, btcToRBTC("50"), WithFeeReservation(estimator))
	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")))

	st := e.State()
	assert.Equal(t, "0.99998", st.LimitMax.String())
	assert.Equal(t, "0.5", st.LimitHalf.String())
}

func TestSwitchSides(t *testing.T) {
	quotes := &staticQuotes{quotes: map[string]*types.SwapQuote{
		"btc/rbtc": quote("50", "0.001"),
		"rbtc/btc": quote("0.02", "0.01"),
	}}
	e, _ := newTestEngine(t, quotes)
	ctx := context.Background()

	require.ErrorIs(t, e.SwitchSides(ctx), ErrNoPair)

	require.NoError(t, e.RefreshQuote(ctx, btcCurrency("1"), rbtcCurrency("2")))
	e.EditAmount(SideSource, "0.01")

	require.NoError(t, e.SwitchSides(ctx))

	st := e.State()
	assert.Equal(t, "RBTC", st.Source.Symbol)
	assert.Equal(t, "BTC", st.Dest.Symbol)
	assert.Equal(t, "0.5", st.SourceText)
	assert.Equal(t, "0.01", st.DestText)
	assert.Equal(t, "2", st.LimitMax.String())
	assert.True(t, st.IsBalanceEnough)
	assert.Equal(t, PresetNone, st.Preset)
}

func TestRefreshFailure(t *testing.T) {
	quotes := &staticQuotes{err: errors.New("gateway timeout")}
	left := false
	e, notifier := newTestEngine(t, quotes, WithLeave(func() { left = true }))
	ctx := context.Background()

	e.EditAmount(SideSource, "0.01")

	err := e.RefreshQuote(ctx, btcCurrency("1"), rbtcCurrency("0"))
	require.ErrorIs(t, err, types.ErrQuoteRefresh)

	st := e.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "0.01", st.SourceText, "amounts are kept")
	require.Len(t, notifier.confirmations, 1)

	c := notifier.confirmations[0]
	assert.Equal(t, "button.retry", c.ConfirmKey)

	quotes.err = nil
	quotes.quotes = map[string]*types.SwapQuote{"btc/rbtc": quote("50", "0.001")}
	c.Confirm()
	assert.Equal(t, 2, quotes.calls)
	assert.Equal(t, "0.5", e.State().DestText)

	c.Cancel()
	assert.True(t, left)
}

func TestSupersededRefreshIsDiscarded(t *testing.T) {
	quotes := &gatedQuotes{calls: make(chan pendingQuote)}
	metrics := monitor.New()
	e, notifier := newTestEngine(t, quotes, WithMetrics(metrics))
	ctx := context.Background()

	btc, rbtc := btcCurrency("1"), rbtcCurrency("1")

	first := make(chan error, 1)
	go func() { first <- e.RefreshQuote(ctx, btc, rbtc) }()
	firstCall := <-quotes.calls

	second := make(chan error, 1)
	go func() { second <- e.RefreshQuote(ctx, rbtc, btc) }()
	secondCall := <-quotes.calls

	third := make(chan error, 1)
	go func() { third <- e.RefreshQuote(ctx, btc, rbtc) }()
	thirdCall := <-quotes.calls

	assert.Equal(t, "btc/rbtc", firstCall.pair)
	assert.Equal(t, "rbtc/btc", secondCall.pair)

	thirdCall.reply <- quoteReply{quote: quote("50", "0.001")}
	require.NoError(t, <-third)

	secondCall.reply <- quoteReply{quote: quote("0.02", "0.01")}
	assert.ErrorIs(t, <-second, ErrSuperseded)

	firstCall.reply <- quoteReply{err: errors.New("late failure")}
	assert.ErrorIs(t, <-first, ErrSuperseded)

	st := e.State()
	assert.Equal(t, "50", st.Rate.Decimal.String())
	assert.Equal(t, "BTC", st.Source.Symbol)
	assert.Empty(t, notifier.confirmations, "stale failures are silent")
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.QuoteRefreshes.WithLabelValues("superseded")))
}

func TestCloseDiscardsInFlightRefresh(t *testing.T) {
	quotes := &gatedQuotes{calls: make(chan pendingQuote)}
	e, notifier := newTestEngine(t, quotes)

	done := make(chan error, 1)
	go func() { done <- e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")) }()
	call := <-quotes.calls

	e.Close()
	call.reply <- quoteReply{quote: quote("50", "0.001")}

	assert.ErrorIs(t, <-done, ErrSuperseded)
	st := e.State()
	assert.False(t, st.Rate.Valid)
	assert.False(t, st.Loading)
	assert.Empty(t, notifier.confirmations)
	assert.Equal(t, 1, notifier.removed)
}

func TestUpdateSwapData(t *testing.T) {
	added := false
	e, notifier := newTestEngine(t, btcToRBTC("50"), WithAddAsset(func() { added = true }))
	ctx := context.Background()

	require.NoError(t, e.UpdateSwapData(ctx, nil, nil))
	require.Len(t, notifier.notifications, 1)
	n := notifier.notifications[0]
	assert.Equal(t, KindInfo, n.Kind)
	assert.Equal(t, "modal.swap.title", n.TitleKey)
	assert.Equal(t, "modal.swap.body", n.MessageKey)
	assert.Equal(t, "button.addAsset", n.ButtonKey)
	n.Action()
	assert.True(t, added)

	btc, rbtc := btcCurrency("1"), rbtcCurrency("0")
	require.NoError(t, e.UpdateSwapData(ctx, &btc, &rbtc))
	e.EditAmount(SideSource, "0.01")
	assert.Equal(t, "0.5", e.State().DestText)

	require.NoError(t, e.UpdateSwapData(ctx, &btc, nil))
	st := e.State()
	assert.False(t, st.Rate.Valid)
	assert.False(t, st.DestAmount.Valid)
	assert.Empty(t, st.DestText)
	assert.Nil(t, st.Dest)
}

func TestExchangeStatus(t *testing.T) {
	fees := &feeService{quote: &types.FeeQuote{Fees: &types.FeeTiers{Medium: types.NewQuantity(2000)}}}
	estimator := fee.NewEstimator(fees, fee.WithMetrics(monitor.New()))
	e, _ := newTestEngine(t, btcToRBTC("50"), WithFeeReservation(estimator))

	assert.Equal(t, ErrorSourceAmount, e.ExchangeStatus().ErrorKey)

	e.EditAmount(SideSource, "0.01")
	assert.Equal(t, ErrorDestAmount, e.ExchangeStatus().ErrorKey)

	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")))
	assert.True(t, e.ExchangeStatus().Ready())

	e.EditAmount(SideSource, "2")
	assert.Equal(t, ErrorBalance, e.ExchangeStatus().ErrorKey)

	e.EditAmount(SideSource, "0.0005")
	assert.Equal(t, ExchangeStatus{ErrorKey: ErrorTooSmall, Suffix: "0.001 BTC"}, e.ExchangeStatus())

	e.EditAmount(SideSource, "0.99999")
	assert.Equal(t, ExchangeStatus{ErrorKey: ErrorTooBig, Suffix: "0.99998 BTC"}, e.ExchangeStatus())
}

func TestExchangeStatusZeroCounterpart(t *testing.T) {
	ctx := context.Background()

	e, _ := newTestEngine(t, &staticQuotes{quotes: map[string]*types.SwapQuote{
		"btc/rbtc": quote("0.02", "0"),
	}})
	require.NoError(t, e.RefreshQuote(ctx, btcCurrency("1"), rbtcCurrency("0")))

	// 0.00000001 * 0.02 rounds to 0 at six places
	e.EditAmount(SideSource, "0.00000001")
	require.True(t, e.State().DestAmount.Valid)
	assert.True(t, e.State().DestAmount.Decimal.IsZero())
	assert.Equal(t, ErrorDestAmount, e.ExchangeStatus().ErrorKey)

	_, err := e.Exchange(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrNotReady)

	e, _ = newTestEngine(t, &staticQuotes{quotes: map[string]*types.SwapQuote{
		"btc/rbtc": quote("1000000000", "0"),
	}})
	require.NoError(t, e.RefreshQuote(ctx, btcCurrency("1"), rbtcCurrency("0")))

	e.EditAmount(SideDest, "0.000001")
	require.True(t, e.State().SourceAmount.Valid)
	assert.True(t, e.State().SourceAmount.Decimal.IsZero())
	assert.Equal(t, ErrorSourceAmount, e.ExchangeStatus().ErrorKey)
}

func TestValueText(t *testing.T) {
	assert.Equal(t, "$20000.06", ValueText(decimal.NewNullDecimal(decimal.RequireFromString("0.5")), decimal.RequireFromString("40000.123"), "$"))
	assert.Empty(t, ValueText(decimal.NullDecimal{}, decimal.NewFromInt(1), "$"))
	assert.Empty(t, ValueText(decimal.NewNullDecimal(decimal.NewFromInt(1)), decimal.Zero, "$"))

	e, _ := newTestEngine(t, btcToRBTC("50"))
	require.NoError(t, e.RefreshQuote(context.Background(), btcCurrency("1"), rbtcCurrency("0")))
	e.EditAmount(SideSource, "0.01")
	assert.Equal(t, "$400.00", e.SourceValueText("$"))
	assert.Empty(t, e.DestValueText("$"))
}

type feeService struct {
	quote *types.FeeQuote
}

func (f *feeService) GetTransactionFees(context.Context, fee.Request) (*types.FeeQuote, error) {
	return f.quote, nil
}
