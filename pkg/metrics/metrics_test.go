package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("order-reconcile", 250*time.Millisecond)
	m.IncSuccess("order-reconcile")
	m.IncFailure("order-reconcile")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, float64(1), counterValue(t, mfs, "job_success", "job", "order-reconcile"))
	assert.Equal(t, float64(1), counterValue(t, mfs, "job_failure", "job", "order-reconcile"))
	assert.Greater(t, histogramSum(t, mfs, "job_duration_seconds", "job", "order-reconcile"), 0.0)
}

func TestFulfillmentMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillmentMetrics(reg)

	m.IncPayment("fulfilled")
	m.IncPayment("fulfilled")
	m.IncItem("insufficient_stock")
	m.IncWebhook("duplicate")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, float64(2), counterValue(t, mfs, "fulfillment_payments_total", "result", "fulfilled"))
	assert.Equal(t, float64(1), counterValue(t, mfs, "fulfillment_items_total", "outcome", "insufficient_stock"))
	assert.Equal(t, float64(1), counterValue(t, mfs, "payment_webhooks_total", "disposition", "duplicate"))
}

func TestNilRegistererIsNoOp(t *testing.T) {
	cron := NewCronJobMetrics(nil)
	cron.ObserveDuration("job", time.Second)
	cron.IncSuccess("job")
	cron.IncFailure("job")

	ful := NewFulfillmentMetrics(nil)
	ful.IncPayment("fulfilled")
	ful.IncItem("fulfilled")
	ful.IncWebhook("accepted")
}

func TestEmptyLabelNormalized(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillmentMetrics(reg)
	m.IncPayment("")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, float64(1), counterValue(t, mfs, "fulfillment_payments_total", "result", "unknown"))
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name, label, value string) float64 {
	t.Helper()
	for _, metric := range metricsFor(t, mfs, name) {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %q missing label %s=%s", name, label, value)
	return 0
}

func histogramSum(t *testing.T, mfs []*dto.MetricFamily, name, label, value string) float64 {
	t.Helper()
	for _, metric := range metricsFor(t, mfs, name) {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum()
		}
	}
	t.Fatalf("histogram %q missing label %s=%s", name, label, value)
	return 0
}

func metricsFor(t *testing.T, mfs []*dto.MetricFamily, name string) []*dto.Metric {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()
		}
	}
	t.Fatalf("metric %q not found", name)
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
