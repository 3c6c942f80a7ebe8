package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus collectors for the HTTP API. Each instance owns
// its registry so handlers and tests can create as many as they need.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	calculations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	handler      http.Handler
}

// NewMetrics creates and registers the API collectors together with the Go runtime collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinchange_requests_total",
			Help: "HTTP requests processed, by method and status code.",
		}, []string{"method", "status"}),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinchange_calculations_total",
			Help: "Change calculations performed, by algorithm and outcome.",
		}, []string{"algorithm", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coinchange_calculation_duration_seconds",
			Help:    "Time spent in a single change calculation.",
			Buckets: prometheus.ExponentialBuckets(1e-7, 4, 12),
		}, []string{"algorithm"}),
	}

	registry.MustRegister(
		m.requests,
		m.calculations,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return m
}

// ObserveCalculation records the outcome and duration of one calculation.
func (m *Metrics) ObserveCalculation(algorithm, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(algorithm, outcome).Inc()
	m.duration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
}

// ObserveRequest counts a completed HTTP request.
func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// ServeHTTP writes the Prometheus exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

func metricsMiddleware(metrics *Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.ObserveRequest(r.Method, rec.status)
	})
}
