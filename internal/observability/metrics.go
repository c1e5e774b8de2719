// Package observability collects Prometheus metrics for the dashboard
// service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the registry and application metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	checkoutsTotal    *prometheus.CounterVec
	checkoutDuration  prometheus.Histogram
	recomputeDuration prometheus.Histogram
	balanceGap        prometheus.Gauge
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voyagedesk_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voyagedesk_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voyagedesk_checkouts_total",
		Help: "Checkout invocations by outcome.",
	}, []string{"outcome"})
	checkoutDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "voyagedesk_checkout_duration_seconds",
		Help:    "End to end checkout duration.",
		Buckets: prometheus.DefBuckets,
	})
	recomputeDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "voyagedesk_tb_recompute_duration_seconds",
		Help:    "Trial balance recompute duration.",
		Buckets: prometheus.DefBuckets,
	})
	gap := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "voyagedesk_balance_sheet_discrepancy",
		Help: "Last observed balance sheet discrepancy in currency units.",
	})
	registry.MustRegister(requests, duration, checkouts, checkoutDur, recomputeDur, gap)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		checkoutsTotal:    checkouts,
		checkoutDuration:  checkoutDur,
		recomputeDuration: recomputeDur,
		balanceGap:        gap,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCheckout records one checkout outcome. Satisfies the coordinator's
// Recorder port.
func (m *Metrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.checkoutsTotal.WithLabelValues(outcome).Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

// ObserveRecompute records a trial balance recompute duration.
func (m *Metrics) ObserveRecompute(duration time.Duration) {
	if m == nil {
		return
	}
	m.recomputeDuration.Observe(duration.Seconds())
}

// SetBalanceGap publishes the latest balance sheet discrepancy.
func (m *Metrics) SetBalanceGap(gap float64) {
	if m == nil {
		return
	}
	m.balanceGap.Set(gap)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
