package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the wallet core collectors on a private registry
type Metrics struct {
	registry          *prometheus.Registry
	PipelinePhases    *prometheus.CounterVec
	FeeQuoteRequests  *prometheus.CounterVec
	QuoteRefreshes    *prometheus.CounterVec
	ExchangesTotal    *prometheus.CounterVec
	RemoteCallSeconds *prometheus.HistogramVec
}

// Default is used by the pipeline, estimator and swap engine
var Default = New()

// New creates a metrics set with its own registry
func New() *Metrics {
	phases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rwallet_pipeline_phases_total",
		Help: "Transaction pipeline phase executions",
	}, []string{"symbol", "phase", "result"})

	feeQuotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rwallet_fee_quote_requests_total",
		Help: "Fee estimate lookups by cache outcome",
	}, []string{"symbol", "cache"})

	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rwallet_quote_refreshes_total",
		Help: "Swap quote refreshes by outcome",
	}, []string{"result"})

	exchanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rwallet_exchanges_total",
		Help: "Swap exchanges by outcome",
	}, []string{"symbol", "result"})

	remote := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rwallet_remote_call_duration_seconds",
		Help:    "Duration of remote service calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"function"})

	r := prometheus.NewRegistry()
	r.MustRegister(phases, feeQuotes, refreshes, exchanges, remote)

	return &Metrics{
		registry:          r,
		PipelinePhases:    phases,
		FeeQuoteRequests:  feeQuotes,
		QuoteRefreshes:    refreshes,
		ExchangesTotal:    exchanges,
		RemoteCallSeconds: remote,
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncPhase counts one pipeline phase attempt and its outcome
func (m *Metrics) IncPhase(symbol, phase string, err error) {
	m.PipelinePhases.WithLabelValues(symbol, phase, resultLabel(err)).Inc()
}

// IncFeeQuote counts a fee estimate served from the cache or the backend
func (m *Metrics) IncFeeQuote(symbol string, hit bool) {
	cache := "miss"
	if hit {
		cache = "hit"
	}
	m.FeeQuoteRequests.WithLabelValues(symbol, cache).Inc()
}

// IncQuoteRefresh counts a swap quote refresh by result
func (m *Metrics) IncQuoteRefresh(result string) {
	m.QuoteRefreshes.WithLabelValues(result).Inc()
}

// IncExchange counts a finished exchange attempt
func (m *Metrics) IncExchange(symbol string, err error) {
	m.ExchangesTotal.WithLabelValues(symbol, resultLabel(err)).Inc()
}

// ObserveRemoteCall records the latency of one remote function call
func (m *Metrics) ObserveRemoteCall(function string, seconds float64) {
	m.RemoteCallSeconds.WithLabelValues(function).Observe(seconds)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
