package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/visionary-built/MyCourierBackend/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	assignments         prometheus.Counter
	declines            prometheus.Counter
	returns             prometheus.Counter
	autoVoids           prometheus.Counter
	propagationFailures prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	assignmentCount      uint64
	declineCount         uint64
	returnCount          uint64
	autoVoidCount        uint64
	propagationFailCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	assignments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consignment_assignments_total",
		Help: "Total consignments assigned to riders",
	})

	declines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consignment_declines_total",
		Help: "Total rider declines of assigned consignments",
	})

	returns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consignment_returns_total",
		Help: "Total consignments registered as returns",
	})

	autoVoids := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consignment_auto_voids_total",
		Help: "Total consignments cancelled by the auto-void sweep",
	})

	propagationFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "status_propagation_failures_total",
		Help: "Total failed cross-family status propagation attempts",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHitRatio, cacheHits, cacheMisses,
		assignments, declines, returns, autoVoids, propagationFailures, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheHitRatio:       cacheHitRatio,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		assignments:         assignments,
		declines:            declines,
		returns:             returns,
		autoVoids:           autoVoids,
		propagationFailures: propagationFailures,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordAssignment counts a successful rider assignment.
func (m *MetricsService) RecordAssignment() {
	if m == nil {
		return
	}
	m.assignments.Inc()
	atomic.AddUint64(&m.assignmentCount, 1)
}

// RecordDecline counts a rider decline.
func (m *MetricsService) RecordDecline() {
	if m == nil {
		return
	}
	m.declines.Inc()
	atomic.AddUint64(&m.declineCount, 1)
}

// RecordReturn counts a registered return.
func (m *MetricsService) RecordReturn() {
	if m == nil {
		return
	}
	m.returns.Inc()
	atomic.AddUint64(&m.returnCount, 1)
}

// RecordAutoVoids counts consignments cancelled by a sweep.
func (m *MetricsService) RecordAutoVoids(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.autoVoids.Add(float64(n))
	atomic.AddUint64(&m.autoVoidCount, uint64(n))
}

// RecordPropagationFailure counts a failed secondary-family write attempt.
func (m *MetricsService) RecordPropagationFailure() {
	if m == nil {
		return
	}
	m.propagationFailures.Inc()
	atomic.AddUint64(&m.propagationFailCount, 1)
}

// Snapshot returns aggregated metrics suitable for dashboard endpoints.
func (m *MetricsService) Snapshot() models.OpsMetricsSnapshot {
	if m == nil {
		return models.OpsMetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.OpsMetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		AssignmentsTotal:         atomic.LoadUint64(&m.assignmentCount),
		DeclinesTotal:            atomic.LoadUint64(&m.declineCount),
		ReturnsTotal:             atomic.LoadUint64(&m.returnCount),
		AutoVoidsTotal:           atomic.LoadUint64(&m.autoVoidCount),
		PropagationFailures:      atomic.LoadUint64(&m.propagationFailCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
