package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the gateway's per-request decisions.
// A nil *Metrics is valid and records nothing, so tests and tools can run
// without a registry.
type Metrics struct {
	// Final decision per request
	Decisions *prometheus.CounterVec

	// First-party token verification failures by token kind and reason
	TokenFailures *prometheus.CounterVec

	// Authorization-code exchange latency against the identity provider
	ExchangeLatency prometheus.Histogram

	// Allow-list lookup latency
	LookupLatency prometheus.Histogram
}

// New creates a Metrics instance with all gateway metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_auth_decisions_total",
			Help: "Total request decisions by outcome",
		}, []string{"outcome"}), // outcome: "pass", "redirect_login", "redirect_session", "deny"

		TokenFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_auth_token_failures_total",
			Help: "Total first-party token verification failures by kind and reason",
		}, []string{"kind", "reason"}),

		ExchangeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "edge_auth_exchange_duration_seconds",
			Help:    "Duration of authorization-code exchanges with the identity provider",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		LookupLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "edge_auth_lookup_duration_seconds",
			Help:    "Duration of allow-list lookups",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementDecision records the final outcome of one request.
func (m *Metrics) IncrementDecision(outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
	}
}

// IncrementTokenFailure records a failed session or state token verification.
func (m *Metrics) IncrementTokenFailure(kind, reason string) {
	if m != nil {
		m.TokenFailures.WithLabelValues(kind, reason).Inc()
	}
}

// ObserveExchangeLatency records the duration of one code exchange.
func (m *Metrics) ObserveExchangeLatency(d time.Duration) {
	if m != nil {
		m.ExchangeLatency.Observe(d.Seconds())
	}
}

// ObserveLookupLatency records the duration of one allow-list fetch.
func (m *Metrics) ObserveLookupLatency(d time.Duration) {
	if m != nil {
		m.LookupLatency.Observe(d.Seconds())
	}
}
