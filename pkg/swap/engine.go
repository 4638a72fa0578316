// Package swap keeps the amounts, rate and deposit limits of a swap between
// two wallet currencies consistent while quotes arrive asynchronously, and
// runs the exchange once the user commits.
package swap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grinry/rwallet/pkg/fee"
	"github.com/grinry/rwallet/pkg/logger"
	"github.com/grinry/rwallet/pkg/monitor"
	"github.com/grinry/rwallet/pkg/types"
	"github.com/grinry/rwallet/pkg/units"
)

var (
	// ErrSuperseded is returned by a quote refresh whose result was discarded
	// because a newer refresh started or the engine was closed
	ErrSuperseded = errors.New("quote refresh superseded")

	// ErrNoPair is returned when an operation needs both currencies selected
	ErrNoPair = errors.New("swap pair not selected")
)

// QuoteService is the third-party swap provider
type QuoteService interface {
	GetRate(ctx context.Context, depositCoin, destinationCoin string) (*types.SwapQuote, error)
	PlaceOrder(ctx context.Context, req types.OrderRequest) (*types.SwapOrder, error)
}

// Side is the amount field being edited
type Side int

const (
	SideSource Side = iota
	SideDest
)

// Preset is one of the MIN/HALF/ALL shortcuts
type Preset int

const (
	PresetNone Preset = iota - 1
	PresetMin
	PresetHalf
	PresetAll
)

func (p Preset) String() string {
	switch p {
	case PresetMin:
		return "MIN"
	case PresetHalf:
		return "HALF"
	case PresetAll:
		return "ALL"
	default:
		return "NONE"
	}
}

// State is a snapshot of the swap screen
type State struct {
	Source *types.Currency
	Dest   *types.Currency

	SourceAmount decimal.NullDecimal
	DestAmount   decimal.NullDecimal
	SourceText   string
	DestText     string

	Rate      decimal.NullDecimal
	LimitMin  decimal.Decimal
	LimitHalf decimal.Decimal
	LimitMax  decimal.Decimal

	IsBalanceEnough bool
	IsAmountInRange bool
	Preset          Preset
	Loading         bool
}

// Engine is the swap reconciliation state machine. All mutation happens
// under its mutex; quote results are only applied when they belong to the
// latest refresh.
type Engine struct {
	quotes     QuoteService
	notifier   Notifier
	reserveFee *fee.Estimator
	onLeave    func()
	onAddAsset func()
	metrics    *monitor.Metrics

	mu         sync.Mutex
	state      State
	edited     Side
	generation uint64
	cancel     context.CancelFunc
}

// Option configures an Engine
type Option func(*Engine)

// WithFeeReservation makes ALL leave room for the network fee of sending
// the whole balance
func WithFeeReservation(estimator *fee.Estimator) Option {
	return func(e *Engine) {
		e.reserveFee = estimator
	}
}

// WithLeave sets the callback run when the user cancels a failed refresh
func WithLeave(fn func()) Option {
	return func(e *Engine) {
		e.onLeave = fn
	}
}

// WithAddAsset sets the callback behind the add-asset notification
func WithAddAsset(fn func()) Option {
	return func(e *Engine) {
		e.onAddAsset = fn
	}
}

// WithMetrics records refresh outcomes on m instead of monitor.Default
func WithMetrics(m *monitor.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an engine with no pair selected
func NewEngine(quotes QuoteService, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		quotes:   quotes,
		notifier: notifier,
		metrics:  monitor.Default,
		state:    State{Preset: PresetNone},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns a copy of the current state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// EditAmount applies a user edit of one amount field. The other amount is
// derived from the current rate.
func (e *Engine) EditAmount(side Side, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Preset = PresetNone
	e.edited = side
	e.applyAmount(side, text)
}

// ApplyPreset sets the source amount to the minimum deposit, half the
// balance or the whole balance
func (e *Engine) ApplyPreset(p Preset) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var amount decimal.Decimal
	switch p {
	case PresetMin:
		amount = e.state.LimitMin
	case PresetHalf:
		amount = e.state.LimitHalf
	case PresetAll:
		amount = e.state.LimitMax
	default:
		return fmt.Errorf("unknown preset %d", int(p))
	}

	e.state.Preset = p
	e.edited = SideSource
	e.applyAmount(SideSource, amount.String())
	return nil
}

// RefreshQuote fetches the rate and limits for the pair and applies them,
// unless another refresh started or the engine closed in the meantime, in
// which case nothing changes and ErrSuperseded is returned.
func (e *Engine) RefreshQuote(ctx context.Context, source, dest types.Currency) error {
	parent := ctx

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.generation++
	gen := e.generation
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	if !samePair(e.state, source, dest) {
		e.resetQuote()
		e.checkLimits()
	}
	e.state.Source = &source
	e.state.Dest = &dest
	e.state.Loading = true
	e.mu.Unlock()
	defer cancel()

	log := logger.With(zap.String("source", source.Symbol), zap.String("dest", dest.Symbol))
	log.Debug("refreshing swap quote")

	quote, err := e.quotes.GetRate(ctx, source.CoinID(), dest.CoinID())
	if err == nil && (quote == nil || !quote.Rate.IsPositive()) {
		err = fmt.Errorf("%w: provider returned no usable rate", types.ErrQuoteRefresh)
	}

	reserve := decimal.Zero
	if err == nil && e.reserveFee != nil && source.Balance.IsPositive() {
		var estimate fee.Estimate
		estimate, err = e.reserveFee.Estimate(ctx, source, "", source.Balance)
		reserve = estimate.Fee
	}

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		e.metrics.IncQuoteRefresh("superseded")
		log.Debug("discarding superseded swap quote")
		return ErrSuperseded
	}
	e.cancel = nil
	e.state.Loading = false

	if err != nil {
		e.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			e.metrics.IncQuoteRefresh("cancelled")
			return err
		}

		e.metrics.IncQuoteRefresh("failed")
		log.Error("failed to refresh swap quote", zap.Error(err))
		e.notifier.AddConfirmation(Confirmation{
			TitleKey:   titleDefaultErr,
			MessageKey: bodyDefaultErr,
			ConfirmKey: buttonRetry,
			Confirm: func() {
				_ = e.RefreshQuote(parent, source, dest)
			},
			Cancel: e.leave,
		})
		return fmt.Errorf("%w: %w", types.ErrQuoteRefresh, err)
	}

	places := source.DisplayPlaces()
	limitMax := source.Balance.Sub(reserve)
	if limitMax.IsNegative() {
		limitMax = decimal.Zero
	}

	e.state.Rate = decimal.NewNullDecimal(quote.Rate)
	e.state.LimitMin = quote.LimitMinDepositCoin
	e.state.LimitMax = limitMax.Truncate(places)
	e.state.LimitHalf = source.Balance.Div(decimal.NewFromInt(2)).Truncate(places)
	e.recompute()
	e.mu.Unlock()

	e.metrics.IncQuoteRefresh("applied")
	log.Info("swap quote applied",
		zap.String("rate", quote.Rate.String()),
		zap.String("limit_min", quote.LimitMinDepositCoin.String()))
	return nil
}

// SwitchSides exchanges source and destination, seeds the new source amount
// with the old destination amount and refreshes the quote
func (e *Engine) SwitchSides(ctx context.Context) error {
	e.mu.Lock()
	if e.state.Source == nil || e.state.Dest == nil {
		e.mu.Unlock()
		return ErrNoPair
	}

	source, dest := *e.state.Dest, *e.state.Source
	seed := e.state.DestAmount

	e.state.Source, e.state.Dest = &source, &dest
	e.resetQuote()
	e.state.Preset = PresetNone
	e.edited = SideSource
	e.state.SourceAmount = seed
	e.state.SourceText = ""
	if seed.Valid {
		e.state.SourceText = seed.Decimal.String()
	}
	e.state.DestAmount = decimal.NullDecimal{}
	e.state.DestText = ""
	e.state.IsBalanceEnough = false
	e.state.IsAmountInRange = false
	e.mu.Unlock()

	return e.RefreshQuote(ctx, source, dest)
}

// UpdateSwapData reacts to a change of the selected pair. With no pair at
// all the user is told to add an asset; with half a pair the amounts are
// reset; with both the quote is refreshed.
func (e *Engine) UpdateSwapData(ctx context.Context, source, dest *types.Currency) error {
	switch {
	case source == nil && dest == nil:
		e.notifier.AddNotification(Notification{
			Kind:       KindInfo,
			TitleKey:   "modal.swap.title",
			MessageKey: "modal.swap.body",
			ButtonKey:  "button.addAsset",
			Action:     e.onAddAsset,
		})
		return nil
	case source == nil || dest == nil:
		e.mu.Lock()
		e.state.Source, e.state.Dest = source, dest
		e.resetQuote()
		e.state.DestAmount = decimal.NullDecimal{}
		e.state.DestText = ""
		e.mu.Unlock()
		return nil
	default:
		return e.RefreshQuote(ctx, *source, *dest)
	}
}

// Close cancels any in-flight refresh. Results that arrive afterwards are
// discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	e.generation++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.state.Loading = false
	e.mu.Unlock()

	e.notifier.RemoveConfirmation()
}

func (e *Engine) leave() {
	if e.onLeave != nil {
		e.onLeave()
	}
}

// recompute re-derives amounts after the rate or limits changed. The side
// the user last edited stays as entered.
func (e *Engine) recompute() {
	if e.edited == SideDest && e.state.DestAmount.Valid {
		e.applyAmount(SideDest, e.state.DestText)
		return
	}
	if e.state.SourceAmount.Valid {
		e.applyAmount(SideSource, e.state.SourceText)
	}
}

func samePair(st State, source, dest types.Currency) bool {
	return st.Source != nil && st.Dest != nil &&
		st.Source.Symbol == source.Symbol && st.Dest.Symbol == dest.Symbol
}

func (e *Engine) resetQuote() {
	e.state.Rate = decimal.NullDecimal{}
	e.state.LimitMin = decimal.Zero
	e.state.LimitHalf = decimal.Zero
	e.state.LimitMax = decimal.Zero
}

func (e *Engine) applyAmount(side Side, text string) {
	st := &e.state

	if side == SideSource {
		st.SourceText = text
	} else {
		st.DestText = text
	}

	amount, err := units.Parse(text)
	if err != nil || !amount.IsPositive() {
		st.SourceAmount = decimal.NullDecimal{}
		st.DestAmount = decimal.NullDecimal{}
		if side == SideSource {
			st.DestText = ""
		} else {
			st.SourceText = ""
		}
		st.IsBalanceEnough = false
		return
	}

	haveRate := st.Rate.Valid && st.Source != nil && st.Dest != nil

	if side == SideSource {
		st.SourceAmount = decimal.NewNullDecimal(amount)
		st.DestAmount = decimal.NullDecimal{}
		st.DestText = ""
		if haveRate {
			d := amount.Mul(st.Rate.Decimal).Round(st.Dest.DisplayPlaces())
			st.DestAmount = decimal.NewNullDecimal(d)
			st.DestText = d.String()
		}
	} else {
		st.DestAmount = decimal.NewNullDecimal(amount)
		st.SourceAmount = decimal.NullDecimal{}
		st.SourceText = ""
		if haveRate {
			s := amount.DivRound(st.Rate.Decimal, st.Source.DisplayPlaces())
			st.SourceAmount = decimal.NewNullDecimal(s)
			st.SourceText = s.String()
		}
	}

	e.checkLimits()
}

func (e *Engine) checkLimits() {
	st := &e.state
	if !st.SourceAmount.Valid || st.Source == nil {
		st.IsBalanceEnough = false
		st.IsAmountInRange = false
		return
	}

	s := st.SourceAmount.Decimal
	st.IsBalanceEnough = st.Source.Balance.GreaterThanOrEqual(s)
	st.IsAmountInRange = st.Rate.Valid &&
		s.GreaterThanOrEqual(st.LimitMin) &&
		s.LessThanOrEqual(st.LimitMax)
}
