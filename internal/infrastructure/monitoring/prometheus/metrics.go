// Package prometheus registers and exposes the application metrics.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultHTTPDurationBuckets covers the expected API latency range.
var DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// DefaultScoringDurationBuckets covers the scoring pipeline, which includes a
// model inference round trip.
var DefaultScoringDurationBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2, 5}

// Metrics holds every metric the service exports.  It satisfies the scoring
// and review metric ports.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ScoringTotal    *prometheus.CounterVec
	ScoringDuration prometheus.Histogram

	SweepRuns          prometheus.Counter
	SweepRejectedTotal prometheus.Counter

	RegistrationsBlocked prometheus.Counter
}

// NewMetrics registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claimguard_http_requests_total",
		Help: "Total HTTP requests by method, route, and status code.",
	}, []string{"method", "route", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "claimguard_http_request_duration_seconds",
		Help:    "HTTP request duration by method and route.",
		Buckets: DefaultHTTPDurationBuckets,
	}, []string{"method", "route"})

	m.ScoringTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claimguard_scoring_total",
		Help: "Scored claims by risk level and degradation.",
	}, []string{"level", "degraded"})

	m.ScoringDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "claimguard_scoring_duration_seconds",
		Help:    "End-to-end claim scoring duration.",
		Buckets: DefaultScoringDurationBuckets,
	})

	m.SweepRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claimguard_review_sweep_runs_total",
		Help: "Review timeout sweep executions.",
	})

	m.SweepRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claimguard_review_sweep_rejected_total",
		Help: "Claims auto-rejected by the review timeout sweep.",
	})

	m.RegistrationsBlocked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claimguard_registrations_blocked_total",
		Help: "Patient registrations blocked by identity screening.",
	})

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ScoringTotal,
		m.ScoringDuration,
		m.SweepRuns,
		m.SweepRejectedTotal,
		m.RegistrationsBlocked,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveScoring implements the scoring metrics port.
func (m *Metrics) ObserveScoring(level string, degraded bool, duration time.Duration) {
	m.ScoringTotal.WithLabelValues(level, strconv.FormatBool(degraded)).Inc()
	m.ScoringDuration.Observe(duration.Seconds())
}

// ObserveSweep implements the review sweep metrics port.
func (m *Metrics) ObserveSweep(rejected int) {
	m.SweepRuns.Inc()
	m.SweepRejectedTotal.Add(float64(rejected))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
