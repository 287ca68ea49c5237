// Package metrics exposes Prometheus instruments for report computation,
// HTTP traffic, exports and the category cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"budgetbolt/internal/cache"
	"budgetbolt/internal/middleware/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "budgetbolt"

// Metrics owns a registry so tests and multiple binaries do not collide on
// the global one.
type Metrics struct {
	registry *prometheus.Registry

	reportDuration *prometheus.HistogramVec
	reportErrors   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	exports        *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		reportDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time spent computing a report.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		reportErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_errors_total",
			Help:      "Reports that ended with an error.",
		}, []string{"operation"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Monthly report exports by result.",
		}, []string{"result"}),
	}
}

// ObserveReport implements reports.Recorder.
func (m *Metrics) ObserveReport(operation string, seconds float64, err error) {
	m.reportDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		m.reportErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveExport implements export.Recorder.
func (m *Metrics) ObserveExport(result string) {
	m.exports.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RegisterCache exports hit, miss and size figures of a named cache.
func (m *Metrics) RegisterCache(name string, stats func() cache.Stats) {
	labels := prometheus.Labels{"cache": name}
	f := promauto.With(m.registry)
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Name: "cache_hits_total", Help: "Cache hits.", ConstLabels: labels,
	}, func() float64 { return float64(stats().Hits) })
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Name: "cache_misses_total", Help: "Cache misses.", ConstLabels: labels,
	}, func() float64 { return float64(stats().Misses) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "cache_entries", Help: "Entries currently cached.", ConstLabels: labels,
	}, func() float64 { return float64(stats().Size) })
}

// RegisterRateLimiter exports rejected requests and tracked clients.
func (m *Metrics) RegisterRateLimiter(stats func() ratelimit.Metrics) {
	f := promauto.With(m.registry)
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Name: "rate_limited_total", Help: "Requests rejected by the rate limiter.",
	}, func() float64 { return float64(stats().Rejected) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "rate_limit_clients", Help: "Clients currently tracked by the rate limiter.",
	}, func() float64 { return float64(stats().ClientCount) })
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
