// Package metrics provides Prometheus metrics for the skill scoring engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Extraction and mapping metrics
	extractionsTotal   prometheus.Counter
	evidenceBySource   *prometheus.CounterVec
	matchesByType      *prometheus.CounterVec
	embeddingFallbacks prometheus.Counter

	// Scoring metrics
	scoringLatency prometheus.Histogram
	skillsScored   prometheus.Counter
	scoringErrors  prometheus.Counter

	// Role matching metrics
	roleMatchesComputed prometheus.Counter
	roleDisqualified    prometheus.Counter
	matchingLatency     prometheus.Histogram

	// Store metrics
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram
	studentsTracked    prometheus.Gauge

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueRejections  prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Detailed error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillscope",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.extractionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extractions_total",
		Help:      "Total number of free-text skill extraction passes",
	})

	m.evidenceBySource = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "evidence_total",
			Help:      "Total pieces of evidence collected, by source kind",
		},
		[]string{"source"},
	)

	m.matchesByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "skill_matches_total",
			Help:      "Total skill matches produced, by match type",
		},
		[]string{"match_type"},
	)

	m.embeddingFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "embedding_fallbacks_total",
		Help:      "Extraction passes that ran without semantic matching",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Per-student scoring pass latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.skillsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skills_scored_total",
		Help:      "Total skill scores computed",
	})

	m.scoringErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_errors_total",
		Help:      "Total scoring pass failures",
	})

	m.roleMatchesComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "role_matches_total",
		Help:      "Total role compatibility results computed",
	})

	m.roleDisqualified = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "role_disqualifications_total",
		Help:      "Role matches disqualified on a mandatory skill",
	})

	m.matchingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matching_latency_milliseconds",
		Help:      "Per-student role matching latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_update_latency_milliseconds",
		Help:      "Store write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Store read latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.studentsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "students_tracked",
		Help:      "Number of students with computed scores",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_queue_size",
		Help:      "Current size of the recompute queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_queue_capacity",
		Help:      "Maximum recompute queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_queue_utilization_ratio",
		Help:      "Recompute queue utilization ratio (size / capacity)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_enqueue_total",
		Help:      "Total recompute jobs enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_dequeue_total",
		Help:      "Total recompute jobs dequeued",
	})

	m.queueRejections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_rejections_total",
		Help:      "Recompute jobs rejected by a full or closed queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of recompute workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Recompute job latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total recompute job failures",
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component and type",
		},
		[]string{"component", "error_type"},
	)
}

// RecordExtraction increments the extraction pass counter.
func RecordExtraction() {
	globalManager.extractionsTotal.Inc()
}

// RecordEvidence counts one piece of evidence for a source kind.
func RecordEvidence(source string) {
	globalManager.evidenceBySource.WithLabelValues(source).Inc()
}

// RecordSkillMatch counts one skill match by match type.
func RecordSkillMatch(matchType string) {
	globalManager.matchesByType.WithLabelValues(matchType).Inc()
}

// RecordEmbeddingFallback counts an extraction pass without semantic matching.
func RecordEmbeddingFallback() {
	globalManager.embeddingFallbacks.Inc()
}

// RecordScoringLatency records one scoring pass latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordSkillsScored adds to the computed score counter.
func RecordSkillsScored(count int) {
	globalManager.skillsScored.Add(float64(count))
}

// RecordScoringError increments the scoring error counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordRoleMatch increments the role match counter.
func RecordRoleMatch() {
	globalManager.roleMatchesComputed.Inc()
}

// RecordRoleDisqualification increments the disqualification counter.
func RecordRoleDisqualification() {
	globalManager.roleDisqualified.Inc()
}

// RecordMatchingLatency records one role matching pass latency in milliseconds.
func RecordMatchingLatency(latencyMs float64) {
	globalManager.matchingLatency.Observe(latencyMs)
}

// RecordStoreUpdateLatency records store write latency in milliseconds.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records store read latency in milliseconds.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// UpdateStudentsTracked sets the number of students with computed scores.
func UpdateStudentsTracked(count int) {
	globalManager.studentsTracked.Set(float64(count))
}

// UpdateQueueSize sets the current recompute queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the recompute queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the recompute queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// RecordQueueRejection increments the rejected-job counter.
func RecordQueueRejection() {
	globalManager.queueRejections.Inc()
}

// UpdateWorkerCount sets the recompute worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records one recompute job latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
