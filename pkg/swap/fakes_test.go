package swap

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/grinry/rwallet/pkg/types"
)

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
	confirmations []Confirmation
	removed       int
}

func (n *recordingNotifier) AddNotification(v Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, v)
}

func (n *recordingNotifier) AddConfirmation(c Confirmation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, c)
}

func (n *recordingNotifier) RemoveConfirmation() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removed++
}

// staticQuotes answers from a table keyed by "deposit/destination"
type staticQuotes struct {
	mu       sync.Mutex
	quotes   map[string]*types.SwapQuote
	err      error
	calls    int
	order    *types.SwapOrder
	orderErr error
	orders   []types.OrderRequest
}

func (q *staticQuotes) GetRate(_ context.Context, depositCoin, destinationCoin string) (*types.SwapQuote, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if q.err != nil {
		return nil, q.err
	}
	return q.quotes[depositCoin+"/"+destinationCoin], nil
}

func (q *staticQuotes) PlaceOrder(_ context.Context, req types.OrderRequest) (*types.SwapOrder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.orders = append(q.orders, req)
	if q.orderErr != nil {
		return nil, q.orderErr
	}
	return q.order, nil
}

type quoteReply struct {
	quote *types.SwapQuote
	err   error
}

type pendingQuote struct {
	pair  string
	reply chan quoteReply
}

// gatedQuotes hands every GetRate call to the test, which decides when and
// how it resolves
type gatedQuotes struct {
	calls chan pendingQuote
}

func (q *gatedQuotes) GetRate(_ context.Context, depositCoin, destinationCoin string) (*types.SwapQuote, error) {
	p := pendingQuote{pair: depositCoin + "/" + destinationCoin, reply: make(chan quoteReply, 1)}
	q.calls <- p
	r := <-p.reply
	return r.quote, r.err
}

func (q *gatedQuotes) PlaceOrder(context.Context, types.OrderRequest) (*types.SwapOrder, error) {
	return nil, nil
}

func quote(rate, min string) *types.SwapQuote {
	return &types.SwapQuote{
		Rate:                decimal.RequireFromString(rate),
		LimitMinDepositCoin: decimal.RequireFromString(min),
		LimitMaxDepositCoin: decimal.RequireFromString("100"),
	}
}

type codedError struct {
	code    int
	message string
}

func (e *codedError) Error() string        { return e.message }
func (e *codedError) ErrorCode() int       { return e.code }
func (e *codedError) ErrorMessage() string { return e.message }
