package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/turtacn/tokenlife/internal/domain/models"
	"github.com/turtacn/tokenlife/pkg/errors"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	TokenSignRequests   *prometheus.CounterVec
	TokenVerifyRequests *prometheus.CounterVec
	TokenOpLatency      *prometheus.HistogramVec
	TokenRevocations    *prometheus.CounterVec
	SweepEntries        *prometheus.CounterVec
	SweepDuration       prometheus.Histogram
	SweepRuns           *prometheus.CounterVec
	LedgerSize          prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TokenSignRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenlife_sign_requests_total",
				Help: "Total number of sign requests.",
			},
			[]string{"result"},
		),
		TokenVerifyRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenlife_verify_requests_total",
				Help: "Total number of verify requests by outcome.",
			},
			[]string{"result"},
		),
		TokenOpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenlife_operation_latency_seconds",
				Help:    "Latency of token operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		TokenRevocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenlife_revocations_total",
				Help: "Total number of tokens added to the revocation ledger.",
			},
			[]string{"source"},
		),
		SweepEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenlife_sweep_entries_total",
				Help: "Ledger entries visited by sweeps, by outcome.",
			},
			[]string{"outcome"},
		),
		SweepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tokenlife_sweep_duration_seconds",
				Help:    "Duration of ledger sweeps.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
		SweepRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenlife_sweep_runs_total",
				Help: "Total number of ledger sweeps.",
			},
			[]string{"result"},
		),
		LedgerSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tokenlife_ledger_entries",
				Help: "Entries retained in the revocation ledger after the last sweep.",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenlife_http_requests_total",
				Help: "Total number of requests served by the ops endpoint.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenlife_http_request_duration_seconds",
				Help:    "Duration of ops endpoint requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// resultLabel turns an error into a low-cardinality label value.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}

// RecordSign records metrics for a sign call.
func (m *Metrics) RecordSign(err error, duration time.Duration) {
	m.TokenSignRequests.WithLabelValues(resultLabel(err)).Inc()
	m.TokenOpLatency.WithLabelValues("sign").Observe(duration.Seconds())
}

// RecordVerify records metrics for a verify call.
func (m *Metrics) RecordVerify(err error, duration time.Duration) {
	m.TokenVerifyRequests.WithLabelValues(resultLabel(err)).Inc()
	m.TokenOpLatency.WithLabelValues("verify").Observe(duration.Seconds())
}

// RecordRevocation records a ledger insertion.
func (m *Metrics) RecordRevocation(source string) {
	m.TokenRevocations.WithLabelValues(source).Inc()
}

// RecordHTTPRequest records one request served by the ops endpoint.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordSweep records the outcome of one sweep.
func (m *Metrics) RecordSweep(result *models.SweepResult, err error) {
	m.SweepRuns.WithLabelValues(resultLabel(err)).Inc()
	if result == nil {
		return
	}
	m.SweepEntries.WithLabelValues("removed").Add(float64(result.Removed))
	m.SweepEntries.WithLabelValues("retained").Add(float64(result.Retained))
	m.SweepDuration.Observe(result.Duration.Seconds())
	if err == nil {
		m.LedgerSize.Set(float64(result.Retained))
	}
}
