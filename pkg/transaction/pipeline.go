// Package transaction drives a transfer through raw build, signing and
// broadcast. Each phase may only run from the state the previous phase left.
package transaction

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grinry/rwallet/pkg/chain"
	"github.com/grinry/rwallet/pkg/logger"
	"github.com/grinry/rwallet/pkg/monitor"
	"github.com/grinry/rwallet/pkg/types"
	"github.com/grinry/rwallet/pkg/units"
)

// Service is the remote builder and broadcaster
type Service interface {
	CreateRawTransaction(ctx context.Context, params any) (types.RawTransaction, error)
	SendSignedTransaction(ctx context.Context, params any) (types.BroadcastResult, error)
}

// State is the pipeline position
type State int

const (
	StateCreated State = iota
	StateRawBuilt
	StateSigned
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRawBuilt:
		return "raw_built"
	case StateSigned:
		return "signed"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Pipeline is a single transfer. It is not reusable once complete.
type Pipeline struct {
	id      string
	intent  types.TransferIntent
	symbol  string
	value   string
	adapter chain.Adapter
	service Service
	metrics *monitor.Metrics

	mu     sync.Mutex
	state  State
	raw    types.RawTransaction
	signed types.SignedTransaction
	result types.BroadcastResult
	hash   string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMetrics records phase outcomes on m instead of monitor.Default
func WithMetrics(m *monitor.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a pipeline in StateCreated. The intent's value is converted to
// base units here; an unsupported symbol is reported by the first phase.
func New(intent types.TransferIntent, service Service, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		id:      uuid.NewString(),
		intent:  intent,
		symbol:  strings.ToUpper(intent.Sender.Symbol),
		adapter: chain.Resolve(intent.Sender.Symbol),
		service: service,
		metrics: monitor.Default,
		state:   StateCreated,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.adapter != nil {
		value, err := units.ToBaseUnitsHex(intent.Sender.Symbol, intent.Value)
		if err != nil {
			return nil, err
		}
		p.value = value
	}

	return p, nil
}

// ID returns the pipeline's correlation id
func (p *Pipeline) ID() string {
	return p.id
}

// State returns the current state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// TxHash returns the broadcast transaction hash, empty before completion
func (p *Pipeline) TxHash() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hash
}

// BuildRaw asks the remote builder for the unsigned transaction
func (p *Pipeline) BuildRaw(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.require(StateCreated, "build raw transaction"); err != nil {
		return err
	}

	params, err := p.adapter.RawTransactionParams(chain.RawRequest{
		Symbol:   p.symbol,
		NetType:  p.intent.Sender.NetType,
		Sender:   p.intent.Sender.Address,
		Receiver: p.intent.Receiver,
		Value:    p.value,
		Data:     p.intent.Data,
		Memo:     p.intent.Memo,
		Fee:      p.intent.Fee,
	})
	if err != nil {
		p.record("build", err)
		return err
	}

	p.log().Info("building raw transaction", zap.String("receiver", p.intent.Receiver), zap.String("value", p.value))

	raw, err := p.service.CreateRawTransaction(ctx, params)
	p.record("build", err)
	if err != nil {
		p.log().Error("failed to build raw transaction", zap.Error(err))
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("builder returned an empty raw transaction")
	}

	p.raw = raw
	p.state = StateRawBuilt
	return nil
}

// Sign signs the raw transaction with the sender's key
func (p *Pipeline) Sign(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.require(StateRawBuilt, "sign"); err != nil {
		return err
	}

	signed, err := p.adapter.Sign(ctx, chain.SignRequest{
		Raw:        p.raw,
		PrivateKey: p.intent.Sender.PrivateKey,
		NetType:    p.intent.Sender.NetType,
	})
	p.record("sign", err)
	if err != nil {
		p.log().Error("failed to sign transaction", zap.Error(err))
		return err
	}

	p.signed = signed
	p.state = StateSigned
	p.log().Info("transaction signed")
	return nil
}

// Broadcast submits the signed transaction and records its hash. A failed
// broadcast leaves the pipeline signed so only this phase is retried.
func (p *Pipeline) Broadcast(ctx context.Context) (types.BroadcastResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.require(StateSigned, "broadcast"); err != nil {
		return nil, err
	}

	params := p.adapter.BroadcastParams(chain.BroadcastRequest{
		Signed:  p.signed,
		NetType: p.intent.Sender.NetType,
		Memo:    p.intent.Memo,
		Order:   p.intent.Order,
	})

	result, err := p.service.SendSignedTransaction(ctx, params)
	if err != nil {
		p.record("broadcast", err)
		p.log().Error("failed to broadcast transaction", zap.Error(err))
		return nil, err
	}

	hash, err := p.adapter.TxHash(result)
	p.record("broadcast", err)
	if err != nil {
		return nil, err
	}

	p.result = result
	p.hash = hash
	p.state = StateComplete
	p.log().Info("transaction broadcast", zap.String("hash", hash))
	return result, nil
}

// Run executes the remaining phases in order and returns the hash
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	if p.State() == StateCreated {
		if err := p.BuildRaw(ctx); err != nil {
			return "", err
		}
	}
	if p.State() == StateRawBuilt {
		if err := p.Sign(ctx); err != nil {
			return "", err
		}
	}
	if _, err := p.Broadcast(ctx); err != nil {
		return "", err
	}
	return p.TxHash(), nil
}

func (p *Pipeline) require(want State, phase string) error {
	if p.adapter == nil {
		return fmt.Errorf("cannot %s: %w %q", phase, types.ErrUnsupportedCurrency, p.intent.Sender.Symbol)
	}
	if p.state != want {
		return fmt.Errorf("cannot %s in state %s: %w", phase, p.state, types.ErrPreconditionViolation)
	}
	return nil
}

func (p *Pipeline) record(phase string, err error) {
	p.metrics.IncPhase(p.symbol, phase, err)
}

func (p *Pipeline) log() *zap.Logger {
	return logger.With(zap.String("pipeline_id", p.id), zap.String("symbol", p.symbol))
}
