package swap

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Exchange readiness message keys
const (
	ErrorSourceAmount = "page.wallet.swap.errorSourceAmount"
	ErrorDestAmount   = "page.wallet.swap.errorDestAmount"
	ErrorBalance      = "page.wallet.swap.errorBalanceEnough"
	ErrorTooSmall     = "page.wallet.swap.errorAmountInRange.tooSmall"
	ErrorTooBig       = "page.wallet.swap.errorAmountInRange.tooBig"
)

// ExchangeStatus tells whether the exchange can proceed. When it cannot,
// ErrorKey names the first failing check and Suffix carries the limit.
type ExchangeStatus struct {
	ErrorKey string
	Suffix   string
}

// Ready reports whether every check passed
func (s ExchangeStatus) Ready() bool {
	return s.ErrorKey == ""
}

// ExchangeStatus evaluates the checks in the order they are shown to the user
func (e *Engine) ExchangeStatus() ExchangeStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	switch {
	case !st.SourceAmount.Valid || !st.SourceAmount.Decimal.IsPositive():
		return ExchangeStatus{ErrorKey: ErrorSourceAmount}
	case !st.DestAmount.Valid || !st.DestAmount.Decimal.IsPositive():
		return ExchangeStatus{ErrorKey: ErrorDestAmount}
	case !st.IsBalanceEnough:
		return ExchangeStatus{ErrorKey: ErrorBalance}
	case st.SourceAmount.Decimal.LessThan(st.LimitMin):
		return ExchangeStatus{ErrorKey: ErrorTooSmall, Suffix: fmt.Sprintf("%s %s", st.LimitMin, st.Source.Symbol)}
	case st.SourceAmount.Decimal.GreaterThan(st.LimitMax):
		return ExchangeStatus{ErrorKey: ErrorTooBig, Suffix: fmt.Sprintf("%s %s", st.LimitMax, st.Source.Symbol)}
	default:
		return ExchangeStatus{}
	}
}

// ValueText formats the fiat value of an amount with two decimals. It is
// empty when the amount or the rate is unknown.
func ValueText(amount decimal.NullDecimal, rate decimal.Decimal, currencySymbol string) string {
	if !amount.Valid || !rate.IsPositive() {
		return ""
	}
	return currencySymbol + amount.Decimal.Mul(rate).StringFixed(2)
}

// SourceValueText is the fiat value of the source amount
func (e *Engine) SourceValueText(currencySymbol string) string {
	st := e.State()
	if st.Source == nil {
		return ""
	}
	return ValueText(st.SourceAmount, st.Source.UsdRate, currencySymbol)
}

// DestValueText is the fiat value of the destination amount
func (e *Engine) DestValueText(currencySymbol string) string {
	st := e.State()
	if st.Dest == nil {
		return ""
	}
	return ValueText(st.DestAmount, st.Dest.UsdRate, currencySymbol)
}
