package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeNoop    = "noop"
)

// OrderMetrics counts checkouts, order transitions and payment updates.
type OrderMetrics struct {
	checkouts   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	payments    *prometheus.CounterVec
	gateway     *prometheus.HistogramVec
}

// NewOrderMetrics registers the order engine metrics on reg. A nil reg
// yields a recorder that drops everything.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buytown_checkouts_total",
		Help: "Checkout attempts by payment method and outcome.",
	}, []string{"payment_method", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buytown_order_transitions_total",
		Help: "Order state transitions by name and outcome.",
	}, []string{"transition", "outcome"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buytown_payment_updates_total",
		Help: "Gateway payment responses by gateway, source and resulting status.",
	}, []string{"gateway", "source", "status"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "buytown_gateway_request_duration_seconds",
		Help:    "Latency of payment gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway", "operation", "outcome"})
	reg.MustRegister(checkouts, transitions, payments, gateway)
	return &OrderMetrics{
		checkouts:   checkouts,
		transitions: transitions,
		payments:    payments,
		gateway:     gateway,
	}
}

func (m *OrderMetrics) ObserveCheckout(paymentMethod, outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(paymentMethod), normalizeLabel(outcome)).Inc()
}

func (m *OrderMetrics) ObserveTransition(transition, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition), normalizeLabel(outcome)).Inc()
}

func (m *OrderMetrics) ObservePaymentUpdate(gateway, source, status string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(gateway), normalizeLabel(source), normalizeLabel(status)).Inc()
}

func (m *OrderMetrics) ObserveGatewayCall(gateway, operation, outcome string, d time.Duration) {
	if m == nil || m.gateway == nil {
		return
	}
	m.gateway.WithLabelValues(normalizeLabel(gateway), normalizeLabel(operation), normalizeLabel(outcome)).Observe(d.Seconds())
}
