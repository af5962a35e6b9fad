// Package metrics defines the Prometheus collectors the service exports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics counts payment confirmations and their per-item results.
type FulfillmentMetrics struct {
	payments *prometheus.CounterVec
	items    *prometheus.CounterVec
	webhooks *prometheus.CounterVec
}

// NewFulfillmentMetrics registers the fulfillment counters on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_payments_total",
		Help: "Payment confirmations processed, by result.",
	}, []string{"result"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_items_total",
		Help: "Line items processed during fulfillment, by outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Gateway webhook notifications received, by disposition.",
	}, []string{"disposition"})
	reg.MustRegister(payments, items, webhooks)
	return &FulfillmentMetrics{payments: payments, items: items, webhooks: webhooks}
}

// IncPayment records the overall result of one payment confirmation
// (e.g. "fulfilled", "partially_fulfilled", "duplicate", "rejected").
func (f *FulfillmentMetrics) IncPayment(result string) {
	if f == nil || f.payments == nil {
		return
	}
	f.payments.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncItem records one line item's fulfillment outcome.
func (f *FulfillmentMetrics) IncItem(outcome string) {
	if f == nil || f.items == nil {
		return
	}
	f.items.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhook records one webhook delivery disposition
// (e.g. "accepted", "duplicate", "ignored", "invalid").
func (f *FulfillmentMetrics) IncWebhook(disposition string) {
	if f == nil || f.webhooks == nil {
		return
	}
	f.webhooks.WithLabelValues(normalizeLabel(disposition)).Inc()
}
