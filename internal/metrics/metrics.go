// Package metrics exposes ledger and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "trade_ledger"

// Metrics holds every collector on a private registry. It implements
// core.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Ledger metrics
	TransactionsCommitted  *prometheus.CounterVec
	TransactionsRetried    *prometheus.CounterVec
	TransactionsConflicted *prometheus.CounterVec
	StockRejections        *prometheus.CounterVec
	PaymentsRecorded       prometheus.Counter
	PaymentAmount          prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	m.TransactionsCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_committed_total",
			Help:      "Store transactions committed, by operation",
		},
		[]string{"op"},
	)
	m.TransactionsRetried = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_retries_total",
			Help:      "Store transactions re-run after a conflict, by operation",
		},
		[]string{"op"},
	)
	m.TransactionsConflicted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_conflicts_total",
			Help:      "Store transactions that gave up after exhausting retries, by operation",
		},
		[]string{"op"},
	)
	m.StockRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Requests rejected for insufficient stock, by supplier product",
		},
		[]string{"supplier_product_id"},
	)
	m.PaymentsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_recorded_total",
		Help:      "Payments recorded against sales",
	})
	m.PaymentAmount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_amount_total",
		Help:      "Sum of recorded payment amounts",
	})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TransactionsCommitted,
		m.TransactionsRetried,
		m.TransactionsConflicted,
		m.StockRejections,
		m.PaymentsRecorded,
		m.PaymentAmount,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records one finished request. path should be the route
// pattern, not the raw URL.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) TransactionCommitted(op string) {
	m.TransactionsCommitted.WithLabelValues(op).Inc()
}

func (m *Metrics) TransactionRetried(op string) {
	m.TransactionsRetried.WithLabelValues(op).Inc()
}

func (m *Metrics) TransactionConflicted(op string) {
	m.TransactionsConflicted.WithLabelValues(op).Inc()
}

func (m *Metrics) StockRejected(supplierProductID string) {
	m.StockRejections.WithLabelValues(supplierProductID).Inc()
}

func (m *Metrics) PaymentRecorded(amount decimal.Decimal) {
	m.PaymentsRecorded.Inc()
	m.PaymentAmount.Add(amount.InexactFloat64())
}
