package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the Prometheus instruments of the sync service.
type Metrics struct {
	webhookRequests *prometheus.CounterVec
	webhookDuration *prometheus.HistogramVec
	invoiceSends    *prometheus.CounterVec
	sendDuration    *prometheus.HistogramVec
	stockUpdates    *prometheus.CounterVec
	invoiceAmount   *prometheus.HistogramVec
}

// NewMetrics registers and returns the Prometheus metrics.
func NewMetrics() *Metrics {
	webhookRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "acusync_webhook_requests_total",
		Help: "Counts incoming shop webhooks by topic and outcome.",
	}, []string{"topic", "status"})

	webhookDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "acusync_webhook_duration_seconds",
		Help:    "Webhook handling latency per topic.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})

	invoiceSends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "acusync_invoice_sends_total",
		Help: "Invoice send attempts by source type and result status.",
	}, []string{"source_type", "status"})

	sendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "acusync_invoice_send_duration_seconds",
		Help:    "End-to-end send pipeline latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source_type"})

	stockUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "acusync_stock_updates_total",
		Help: "Remote stock mutations by outcome.",
	}, []string{"status"})

	invoiceAmount := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "acusync_invoice_amount",
		Help:    "Invoice amount distribution.",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
	}, []string{"source_type"})

	prometheus.MustRegister(
		webhookRequests,
		webhookDuration,
		invoiceSends,
		sendDuration,
		stockUpdates,
		invoiceAmount,
	)

	return &Metrics{
		webhookRequests: webhookRequests,
		webhookDuration: webhookDuration,
		invoiceSends:    invoiceSends,
		sendDuration:    sendDuration,
		stockUpdates:    stockUpdates,
		invoiceAmount:   invoiceAmount,
	}
}

// ObserveWebhook records one handled webhook and its latency.
func (m *Metrics) ObserveWebhook(topic, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.webhookRequests.WithLabelValues(topic, status).Inc()
	m.webhookDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// ObserveInvoiceSend records one send attempt.
func (m *Metrics) ObserveInvoiceSend(sourceType, status string, amount float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.invoiceSends.WithLabelValues(sourceType, status).Inc()
	m.sendDuration.WithLabelValues(sourceType).Observe(duration.Seconds())
	if amount > 0 {
		m.invoiceAmount.WithLabelValues(sourceType).Observe(amount)
	}
}

// ObserveStockUpdate records one stock mutation outcome.
func (m *Metrics) ObserveStockUpdate(status string) {
	if m == nil {
		return
	}
	m.stockUpdates.WithLabelValues(status).Inc()
}
