package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "engine"

// latencyBuckets bound the millisecond latency histograms.
var latencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000} //nolint:gochecknoglobals // fixed buckets

// Suppression reasons.
const (
	ReasonCooldown = "cooldown"
	ReasonConflict = "conflict"
	ReasonTierNone = "tier_none"
)

// Manager owns every Prometheus collector of the engine.
type Manager struct {
	namespace    string
	enabled      bool
	customLabels map[string]string
	registry     prometheus.Registerer

	// Engine metrics
	candidatesScored *prometheus.CounterVec
	alertsFired      *prometheus.CounterVec
	alertsSuppressed *prometheus.CounterVec
	alertsAdmitted   *prometheus.CounterVec
	bidMedian        prometheus.Histogram
	passes           *prometheus.CounterVec
	passDuration     prometheus.Histogram
	passFailures     *prometheus.CounterVec

	// Cooldown store metrics
	cooldownConflicts prometheus.Counter
	cooldownEntries   prometheus.Gauge
	storeLatency      *prometheus.HistogramVec

	// Pass queue metrics
	queueSize     prometheus.Gauge
	queueRejected *prometheus.CounterVec

	// Worker metrics
	workerActive  prometheus.Gauge
	workerLatency prometheus.Histogram
	workerPanics  prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global manager on a fresh registry. It must run
// before anything records or serves metrics, typically right after the
// configuration is loaded.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager registered on its registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:    "waiver",
		enabled:      true,
		customLabels: make(map[string]string),
		registry:     prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		Buckets:     latencyBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.candidatesScored = m.counterVec("candidates_scored_total", "Candidates scored by resulting tier", "tier")
	m.alertsFired = m.counterVec("alerts_fired_total", "Alerts produced by rule evaluators", "rule")
	m.alertsSuppressed = m.counterVec("alerts_suppressed_total", "Alerts dropped before the digest by reason", "reason")
	m.alertsAdmitted = m.counterVec("alerts_admitted_total", "Alerts admitted by the cooldown gate", "rule", "tier")
	m.bidMedian = m.histogram("bid_median_units", "Median FAAB bid of admitted alerts", []float64{0, 1, 2, 5, 10, 20, 30, 45, 60, 90})
	m.passes = m.counterVec("passes_total", "Evaluation passes by trigger and outcome", "trigger", "outcome")
	m.passDuration = m.histogram("pass_duration_milliseconds", "Wall time of a full evaluation pass", []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000})
	m.passFailures = m.counterVec("pass_item_failures_total", "Per-item failures by stage", "stage")

	m.cooldownConflicts = m.counter("cooldown_conflicts_total", "Compare-and-set conflicts in the cooldown store")
	m.cooldownEntries = m.gauge("cooldown_entries", "Entries held by the in-memory cooldown store")
	m.storeLatency = m.histogramVec("cooldown_store_latency_milliseconds", "Cooldown store operation latency", "backend", "op")

	m.queueSize = m.gauge("pass_queue_size", "Pass requests waiting to run")
	m.queueRejected = m.counterVec("pass_queue_rejected_total", "Pass requests refused by the queue", "reason")

	m.workerActive = m.gauge("worker_active", "Workers currently running a job")
	m.workerLatency = m.histogram("worker_job_latency_milliseconds", "Per-job processing latency", latencyBuckets)
	m.workerPanics = m.counter("worker_panics_total", "Jobs that panicked and were recovered")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// RecordCandidateScored counts a scored candidate.
func RecordCandidateScored(tier string) {
	if globalManager.enabled {
		globalManager.candidatesScored.WithLabelValues(tier).Inc()
	}
}

// RecordAlertFired counts an alert produced by a rule.
func RecordAlertFired(rule string) {
	if globalManager.enabled {
		globalManager.alertsFired.WithLabelValues(rule).Inc()
	}
}

// RecordAlertSuppressed counts an alert dropped for reason.
func RecordAlertSuppressed(reason string) {
	if globalManager.enabled {
		globalManager.alertsSuppressed.WithLabelValues(reason).Inc()
	}
}

// RecordAlertAdmitted counts an alert passed to the digest.
func RecordAlertAdmitted(rule, tier string, medianBid int) {
	if globalManager.enabled {
		globalManager.alertsAdmitted.WithLabelValues(rule, tier).Inc()
		globalManager.bidMedian.Observe(float64(medianBid))
	}
}

// RecordPass counts a completed pass and its duration.
func RecordPass(trigger, outcome string, durationMs float64) {
	if globalManager.enabled {
		globalManager.passes.WithLabelValues(trigger, outcome).Inc()
		globalManager.passDuration.Observe(durationMs)
	}
}

// RecordPassFailure counts one per-item failure.
func RecordPassFailure(stage string) {
	if globalManager.enabled {
		globalManager.passFailures.WithLabelValues(stage).Inc()
	}
}

// RecordCooldownConflict counts a lost compare-and-set.
func RecordCooldownConflict() {
	if globalManager.enabled {
		globalManager.cooldownConflicts.Inc()
	}
}

// UpdateCooldownEntries sets the in-memory entry count.
func UpdateCooldownEntries(n int) {
	if globalManager.enabled {
		globalManager.cooldownEntries.Set(float64(n))
	}
}

// RecordStoreLatency records a cooldown store operation latency.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
	}
}

// UpdateQueueSize sets the pending pass request count.
func UpdateQueueSize(n int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(n))
	}
}

// RecordQueueRejected counts a refused pass request.
func RecordQueueRejected(reason string) {
	if globalManager.enabled {
		globalManager.queueRejected.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerActive sets the number of busy workers.
func UpdateWorkerActive(n int) {
	if globalManager.enabled {
		globalManager.workerActive.Set(float64(n))
	}
}

// RecordWorkerProcessingLatency records per-job latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerLatency.Observe(latencyMs)
	}
}

// RecordWorkerPanic counts a recovered job panic.
func RecordWorkerPanic() {
	if globalManager.enabled {
		globalManager.workerPanics.Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
