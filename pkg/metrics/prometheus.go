// Package metrics provides Prometheus metrics for the hearth HTTP server.
package metrics

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval    = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// Manager owns a Prometheus registry and every metric the server exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	constLabels      prometheus.Labels
	registry         *prometheus.Registry
	processCollector bool

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge

	// Error metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics, refreshed by Collect
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
	collections          prometheus.Counter

	collectMu sync.Mutex
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process-wide manager, created on first use.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry a
// fresh registry is used so managers never collide with each other.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hearth",
		subsystem:        "server",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      prometheus.Labels{},
		processCollector: true,
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint, method and status code",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency in seconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_in_flight",
		Help:        "Number of HTTP requests currently being served",
		ConstLabels: m.constLabels,
	})

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_type_total",
			Help:        "Errors classified by type and severity",
			ConstLabels: m.constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Errors by endpoint, method and type",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "Heap bytes allocated and in use",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "Average GC pause time in milliseconds, sampled per collection pass",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})

	m.collections = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "resource_collections_total",
		Help:        "Number of process resource collection passes",
		ConstLabels: m.constLabels,
	})

	if m.processCollector {
		// CPU seconds, resident memory and open file descriptors; sampled on every gather.
		m.registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: m.namespace}),
			collectors.NewGoCollector(),
		)
	}
}

// RecordHTTPRequest increments the request counter and observes its latency.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration.Seconds())
}

// RecordError counts a failed request by endpoint and by classification.
func (m *Manager) RecordError(endpoint, method, errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// InFlight adjusts the in-flight request gauge by delta.
func (m *Manager) InFlight(delta int) {
	if !m.enabled {
		return
	}
	m.httpInFlight.Add(float64(delta))
}

// Collect runs one sampling pass over process-level resources.
func (m *Manager) Collect() {
	if !m.enabled {
		return
	}
	m.collectMu.Lock()
	defer m.collectMu.Unlock()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.Alloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		avgPauseMs := float64(ms.PauseTotalNs) / float64(ms.NumGC) / nanosecondsPerMillisecond
		m.systemGCPauseTime.Observe(avgPauseMs)
	}
	m.collections.Inc()
}

// Run calls Collect every refresh interval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Collect()
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the Prometheus registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RefreshInterval reports how often Run samples.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}
