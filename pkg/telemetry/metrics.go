package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the analytics surface.
type Metrics struct {
	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	computeRuns     *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
	rowsRead        *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	exportDownloads *prometheus.CounterVec
	customersSeen   prometheus.Gauge
}

// NewMetrics registers and returns Prometheus metrics for telemetry.
func NewMetrics() *Metrics {
	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creditscope_api_requests_total",
		Help: "Counts API requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "creditscope_api_duration_seconds",
		Help:    "API request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	computeRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creditscope_compute_runs_total",
		Help: "Metric derivations by kind and outcome.",
	}, []string{"metric", "status"})

	computeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "creditscope_compute_duration_seconds",
		Help:    "Metric derivation durations by kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"metric"})

	rowsRead := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creditscope_warehouse_rows_read_total",
		Help: "Rows fetched from the warehouse views.",
	}, []string{"view"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creditscope_cache_lookups_total",
		Help: "Derived-metric cache lookups by outcome.",
	}, []string{"metric", "outcome"})

	exportDownloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creditscope_export_downloads_total",
		Help: "CSV export downloads by report.",
	}, []string{"report"})

	customersSeen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "creditscope_customers_seen",
		Help: "Distinct customers in the most recent overall run-rate.",
	})

	prometheus.MustRegister(
		apiRequests,
		apiDuration,
		computeRuns,
		computeDuration,
		rowsRead,
		cacheLookups,
		exportDownloads,
		customersSeen,
	)

	return &Metrics{
		apiRequests:     apiRequests,
		apiDuration:     apiDuration,
		computeRuns:     computeRuns,
		computeDuration: computeDuration,
		rowsRead:        rowsRead,
		cacheLookups:    cacheLookups,
		exportDownloads: exportDownloads,
		customersSeen:   customersSeen,
	}
}

// ObserveAPIRequest records an API request and latency.
func (m *Metrics) ObserveAPIRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	routeLabel := sanitizeLabel(route)
	methodLabel := sanitizeLabel(method)
	m.apiRequests.WithLabelValues(methodLabel, routeLabel, status).Inc()
	m.apiDuration.WithLabelValues(methodLabel, routeLabel).Observe(duration.Seconds())
}

// ObserveComputeRun records one metric derivation and its duration.
func (m *Metrics) ObserveComputeRun(metric, status string, duration time.Duration) {
	if m == nil {
		return
	}
	metricLabel := sanitizeLabel(metric)
	m.computeRuns.WithLabelValues(metricLabel, sanitizeLabel(status)).Inc()
	m.computeDuration.WithLabelValues(metricLabel).Observe(duration.Seconds())
}

// ObserveRowsRead adds to the per-view row counter.
// count allows batching a whole fetch with one call.
func (m *Metrics) ObserveRowsRead(view string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rowsRead.WithLabelValues(sanitizeLabel(view)).Add(float64(count))
}

// ObserveCacheLookup records a cache hit or miss for a derived metric.
func (m *Metrics) ObserveCacheLookup(metric string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(sanitizeLabel(metric), outcome).Inc()
}

// ObserveExportDownload counts one CSV download of the given report.
func (m *Metrics) ObserveExportDownload(report string) {
	if m == nil {
		return
	}
	m.exportDownloads.WithLabelValues(sanitizeLabel(report)).Inc()
}

// SetCustomersSeen updates the distinct-customer gauge.
func (m *Metrics) SetCustomersSeen(value float64) {
	if m == nil {
		return
	}
	m.customersSeen.Set(value)
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
