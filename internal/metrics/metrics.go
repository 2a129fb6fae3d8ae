// Package metrics exposes Prometheus instrumentation for the wallet. All
// recording methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ludo_wallet"

type Metrics struct {
	registry          *prometheus.Registry
	transactionsTotal *prometheus.CounterVec
	reconcilesTotal   prometheus.Counter
	otpDeliveries     *prometheus.CounterVec
	otpVerifications  *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// New builds the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "transactions_total",
				Help:      "Ledger transactions written or settled, by type and resulting status.",
			},
			[]string{"type", "status"},
		),
		reconcilesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "reconciliations_total",
				Help:      "Balance reconciliations replayed from the transaction log.",
			},
		),
		otpDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "otp_deliveries_total",
				Help:      "OTP SMS delivery attempts partitioned by result.",
			},
			[]string{"result"},
		),
		otpVerifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "otp_verifications_total",
				Help:      "OTP verification attempts partitioned by result.",
			},
			[]string{"result"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by method, route and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Metrics) RecordTransaction(kind, status string) {
	if m == nil {
		return
	}
	m.transactionsTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) RecordReconcile() {
	if m == nil {
		return
	}
	m.reconcilesTotal.Inc()
}

func (m *Metrics) RecordOTPDelivery(result string) {
	if m == nil {
		return
	}
	m.otpDeliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordOTPVerification(result string) {
	if m == nil {
		return
	}
	m.otpVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
