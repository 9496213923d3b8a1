package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcastillo/reqtx"
)

// Metrics holds all prometheus metrics for the service.
// uses a custom registry to avoid polluting the global namespace.
type Metrics struct {
	Registry *prometheus.Registry

	// http_request_duration_seconds - histogram for api latency
	HTTPRequestDuration *prometheus.HistogramVec

	// reqtx_transaction_begin_total - counter for transaction begins
	TxBeginTotal *prometheus.CounterVec

	// reqtx_transaction_close_total - counter for commits and rollbacks
	TxCloseTotal *prometheus.CounterVec

	// reqtx_transaction_close_duration_seconds - histogram for close latency
	TxCloseDuration *prometheus.HistogramVec

	// reqtx_deferred_emissions - histogram of response operations queued
	// behind a transaction close
	DeferredEmissions prometheus.Histogram
}

// New creates and registers all prometheus metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	// add standard go runtime and process collectors
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		TxBeginTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqtx_transaction_begin_total",
				Help: "Total number of request transaction begin attempts",
			},
			[]string{"result"},
		),

		TxCloseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reqtx_transaction_close_total",
				Help: "Total number of request transaction close operations",
			},
			[]string{"op", "result"},
		),

		TxCloseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reqtx_transaction_close_duration_seconds",
				Help:    "Duration of commit/rollback operations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~2s
			},
			[]string{"op"},
		),

		DeferredEmissions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reqtx_deferred_emissions",
			Help:    "Response operations queued behind a transaction close",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		}),
	}

	// register all custom metrics
	reg.MustRegister(
		m.HTTPRequestDuration,
		m.TxBeginTotal,
		m.TxCloseTotal,
		m.TxCloseDuration,
		m.DeferredEmissions,
	)

	return m
}

// RecordHTTPRequest records the duration of an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
}

// Hooks adapts the metrics to the bridge's lifecycle hook points.
func (m *Metrics) Hooks() reqtx.Hooks {
	return reqtx.Hooks{
		OnBegin: func(err error, _ time.Duration) {
			m.TxBeginTotal.WithLabelValues(result(err)).Inc()
		},
		OnClose: func(op string, err error, elapsed time.Duration) {
			m.TxCloseTotal.WithLabelValues(op, result(err)).Inc()
			m.TxCloseDuration.WithLabelValues(op).Observe(elapsed.Seconds())
		},
		OnReplay: func(queued int) {
			m.DeferredEmissions.Observe(float64(queued))
		},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
