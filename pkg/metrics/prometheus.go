// Package metrics provides Prometheus metrics for the well-test analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// f1Buckets split the unit interval in tenths.
var f1Buckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0} //nolint:gochecknoglobals // constant bucket layout

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Detection
	detections        *prometheus.CounterVec
	detectionDuration prometheus.Histogram
	candidates        *prometheus.CounterVec
	intervals         *prometheus.CounterVec
	paddedSeries      prometheus.Counter
	f1Score           *prometheus.HistogramVec

	// Jobs
	jobsProcessed prometheus.Counter
	jobsFailed    prometheus.Counter
	jobsDuplicate prometheus.Counter
	jobDuration   prometheus.Histogram
	resultsTotal  prometheus.Gauge

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "welltest",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.detections = auto.NewCounterVec(m.counterOpts("detections_total",
		"Detection runs by outcome"), []string{"outcome"})
	m.detectionDuration = auto.NewHistogram(m.histogramOpts("detection_duration_milliseconds",
		"Wall time of one detection run", m.histogramBuckets))
	m.candidates = auto.NewCounterVec(m.counterOpts("candidates_total",
		"Candidate windows by interval kind and outcome"), []string{"kind", "outcome"})
	m.intervals = auto.NewCounterVec(m.counterOpts("intervals_total",
		"Intervals emitted by kind"), []string{"kind"})
	m.paddedSeries = auto.NewCounter(m.counterOpts("padded_series_total",
		"Series that received low-density padding"))
	m.f1Score = auto.NewHistogramVec(m.histogramOpts("f1_score",
		"F1 of detected intervals against annotations", f1Buckets), []string{"kind"})

	m.jobsProcessed = auto.NewCounter(m.counterOpts("jobs_processed_total",
		"Analysis jobs completed"))
	m.jobsFailed = auto.NewCounter(m.counterOpts("jobs_failed_total",
		"Analysis jobs that returned an error"))
	m.jobsDuplicate = auto.NewCounter(m.counterOpts("jobs_duplicate_total",
		"Submissions skipped because the file was already queued"))
	m.jobDuration = auto.NewHistogram(m.histogramOpts("job_duration_milliseconds",
		"Load, detect and score time of one job", m.histogramBuckets))
	m.resultsTotal = auto.NewGauge(m.gaugeOpts("results_total",
		"Analyses held in the result store"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Maximum jobs the queue accepts"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counterOpts("queue_enqueue_errors_total",
		"Rejected enqueue attempts by reason"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Running analysis workers"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
}

// RecordDetection counts a successful detection and its duration.
func RecordDetection(durationMs float64) {
	globalManager.detections.WithLabelValues("ok").Inc()
	globalManager.detectionDuration.Observe(durationMs)
}

// RecordDetectionError counts a detection that returned an error.
func RecordDetectionError() {
	globalManager.detections.WithLabelValues("error").Inc()
}

// RecordCandidates adds n candidates of kind with the given outcome.
func RecordCandidates(kind, outcome string, n int) {
	if n > 0 {
		globalManager.candidates.WithLabelValues(kind, outcome).Add(float64(n))
	}
}

// RecordIntervals adds n emitted intervals of kind.
func RecordIntervals(kind string, n int) {
	if n > 0 {
		globalManager.intervals.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordPadded counts a series that was padded for low density.
func RecordPadded() {
	globalManager.paddedSeries.Inc()
}

// RecordF1 observes a score for kind.
func RecordF1(kind string, f1 float64) {
	globalManager.f1Score.WithLabelValues(kind).Observe(f1)
}

// RecordJobProcessed counts a completed job.
func RecordJobProcessed(durationMs float64) {
	globalManager.jobsProcessed.Inc()
	globalManager.jobDuration.Observe(durationMs)
}

// RecordJobFailed counts a failed job.
func RecordJobFailed() {
	globalManager.jobsFailed.Inc()
}

// RecordJobDuplicate counts a skipped duplicate submission.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// UpdateResultsTotal sets the result store size.
func UpdateResultsTotal(n int) {
	globalManager.resultsTotal.Set(float64(n))
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest counts a request and observes its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordError counts an error by component and type.
func RecordError(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
