package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics exposes Prometheus collectors for patronage ledger activity.
type LedgerMetrics struct {
	registrations prometheus.Counter
	subscriptions prometheus.Counter
	settlements   *prometheus.CounterVec
	payments      *prometheus.CounterVec
}

// GatewayMetrics records HTTP gateway activity segmented by route and outcome.
type GatewayMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	ledgerMetricsOnce  sync.Once
	ledgerRegistry     *LedgerMetrics
	gatewayMetricsOnce sync.Once
	gatewayRegistry    *GatewayMetrics
)

// Ledger returns the lazily-initialised metrics registry tracking ledger
// operations.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			registrations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "patron",
				Subsystem: "ledger",
				Name:      "business_registrations_total",
				Help:      "Total business registrations accepted by the ledger.",
			}),
			subscriptions: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "patron",
				Subsystem: "ledger",
				Name:      "subscriptions_created_total",
				Help:      "Total patronage subscriptions opened.",
			}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "patron",
				Subsystem: "ledger",
				Name:      "settlements_total",
				Help:      "Subscription settlements segmented by outcome.",
			}, []string{"outcome"}),
			payments: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "patron",
				Subsystem: "ledger",
				Name:      "onetime_payments_total",
				Help:      "One-time payments segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.registrations,
			ledgerRegistry.subscriptions,
			ledgerRegistry.settlements,
			ledgerRegistry.payments,
		)
	})
	return ledgerRegistry
}

// RecordRegistration increments the accepted-registration counter.
func (m *LedgerMetrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

// RecordSubscription increments the opened-subscription counter.
func (m *LedgerMetrics) RecordSubscription() {
	if m == nil {
		return
	}
	m.subscriptions.Inc()
}

// RecordSettlement counts a settlement attempt with the supplied outcome
// label ("ok", "rejected", or "insufficient_funds").
func (m *LedgerMetrics) RecordSettlement(outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

// RecordOneTimePayment counts a one-time payment attempt with the supplied
// outcome label.
func (m *LedgerMetrics) RecordOneTimePayment(outcome string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(outcome).Inc()
}

// Gateway returns the lazily-initialised metrics registry used by the HTTP
// gateway.
func Gateway() *GatewayMetrics {
	gatewayMetricsOnce.Do(func() {
		gatewayRegistry = &GatewayMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "patron",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total gateway requests segmented by route and status class.",
			}, []string{"route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "patron",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for gateway handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route"}),
		}
		prometheus.MustRegister(gatewayRegistry.requests, gatewayRegistry.latency)
	})
	return gatewayRegistry
}

// Observe records one gateway request.
func (m *GatewayMetrics) Observe(route string, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, status).Inc()
	m.latency.WithLabelValues(route).Observe(seconds)
}
