// Package metrics provides Prometheus metrics for the subway deduction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Deduction engine metrics
	solvesTotal          *prometheus.CounterVec
	solveLatency         prometheus.Histogram
	completionCounts     prometheus.Histogram
	branchesExplored     prometheus.Histogram
	constraintViolations *prometheus.CounterVec

	// Conflict model cache
	conflictCacheHits   prometheus.Counter
	conflictCacheMisses prometheus.Counter

	// Catalog gauges
	catalogPools    prometheus.Gauge
	catalogSets     prometheus.Gauge
	catalogTrainers prometheus.Gauge

	// Trainer search
	trainerSearches      prometheus.Counter
	trainerSearchResults prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collectors do not leak in.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "subwaydex",
		subsystem:        "deduction",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.solvesTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "solves_total",
			Help:      "Total number of completion searches by outcome",
		},
		[]string{"outcome"},
	)

	m.solveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "solve_latency_milliseconds",
		Help:      "Histogram of completion search latency in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
	})

	m.completionCounts = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completion_count",
		Help:      "Histogram of legal completion counts returned per solve",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	m.branchesExplored = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "branches_explored",
		Help:      "Histogram of search branches expanded per solve",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	m.constraintViolations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "constraint_violations_total",
			Help:      "Total number of rejected observations by violation kind",
		},
		[]string{"kind"},
	)

	m.conflictCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "conflict_cache_hits_total",
		Help:      "Total number of conflict model cache hits",
	})

	m.conflictCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "conflict_cache_misses_total",
		Help:      "Total number of conflict model cache misses (model derivations)",
	})

	m.catalogPools = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_pools",
		Help:      "Number of pools loaded in the catalog",
	})

	m.catalogSets = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_sets",
		Help:      "Number of sets loaded in the catalog",
	})

	m.catalogTrainers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_trainers",
		Help:      "Number of trainers loaded in the catalog",
	})

	m.trainerSearches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trainer_searches_total",
		Help:      "Total number of trainer autocomplete queries",
	})

	m.trainerSearchResults = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trainer_search_results",
		Help:      "Histogram of result counts per trainer search",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of average GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	})
}

// RecordSolve records a completed search with its outcome label
// (ok, unknown_set, conflicting_observation, cancelled).
func RecordSolve(outcome string) {
	globalManager.solvesTotal.WithLabelValues(outcome).Inc()
}

// RecordSolveLatency records completion search latency in milliseconds.
func RecordSolveLatency(latencyMs float64) {
	globalManager.solveLatency.Observe(latencyMs)
}

// RecordCompletionCount records the number of legal completions of a solve.
func RecordCompletionCount(count int) {
	globalManager.completionCounts.Observe(float64(count))
}

// RecordBranchesExplored records how many branches a solve expanded.
func RecordBranchesExplored(n int) {
	globalManager.branchesExplored.Observe(float64(n))
}

// RecordConstraintViolation increments the violation counter for the given kind.
func RecordConstraintViolation(kind string) {
	globalManager.constraintViolations.WithLabelValues(kind).Inc()
}

// RecordConflictCacheHit increments the conflict model cache hit counter.
func RecordConflictCacheHit() {
	globalManager.conflictCacheHits.Inc()
}

// RecordConflictCacheMiss increments the conflict model cache miss counter.
func RecordConflictCacheMiss() {
	globalManager.conflictCacheMisses.Inc()
}

// UpdateCatalogPools sets the number of loaded pools.
func UpdateCatalogPools(count int) {
	globalManager.catalogPools.Set(float64(count))
}

// UpdateCatalogSets sets the number of loaded sets.
func UpdateCatalogSets(count int) {
	globalManager.catalogSets.Set(float64(count))
}

// UpdateCatalogTrainers sets the number of loaded trainers.
func UpdateCatalogTrainers(count int) {
	globalManager.catalogTrainers.Set(float64(count))
}

// RecordTrainerSearch records one autocomplete query and its result count.
func RecordTrainerSearch(results int) {
	globalManager.trainerSearches.Inc()
	globalManager.trainerSearchResults.Observe(float64(results))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the current heap allocation.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records average GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager, for promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
