// Package metrics provides Prometheus metrics for the candle game services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultNamespace = "candle"
	defaultSubsystem = "game"
)

// Result labels for completed games.
const (
	ResultWon  = "won"
	ResultLost = "lost"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Game economy
	gamesCompleted      *prometheus.CounterVec
	completionDuplicate prometheus.Counter
	hintsPurchased      *prometheus.CounterVec
	hintsRejected       *prometheus.CounterVec
	guesses             *prometheus.CounterVec
	finalScore          prometheus.Histogram

	// Persistence and sync
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
	syncFailures prometheus.Counter
	outboxDepth  prometheus.Gauge
	recomputes   prometheus.Counter
	indexSize    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authFailures        prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager. Collectors are registered on the
// configured registry (prometheus.DefaultRegisterer unless overridden).
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.gamesCompleted = auto.NewCounterVec(
		m.counterOpts("games_completed_total", "Completed games recorded, by result"),
		[]string{"result"},
	)
	m.completionDuplicate = auto.NewCounter(
		m.counterOpts("completions_duplicate_total", "Completion submissions rejected as already recorded"),
	)
	m.hintsPurchased = auto.NewCounterVec(
		m.counterOpts("hints_purchased_total", "Accepted hint purchases, by hint id"),
		[]string{"hint"},
	)
	m.hintsRejected = auto.NewCounterVec(
		m.counterOpts("hints_rejected_total", "Rejected hint purchases, by reason"),
		[]string{"reason"},
	)
	m.guesses = auto.NewCounterVec(
		m.counterOpts("guesses_total", "Submitted guesses, by outcome"),
		[]string{"outcome"},
	)
	m.finalScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "final_score",
		Help:        "Distribution of recorded final scores",
		Buckets:     prometheus.LinearBuckets(0, 100, 11),
		ConstLabels: m.constLabels,
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_latency_milliseconds",
		Help:        "Latency of store operations in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"backend", "op"})
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Failed store operations"),
		[]string{"backend", "op"},
	)
	m.syncFailures = auto.NewCounter(
		m.counterOpts("sync_failures_total", "Completions that could not be delivered to the remote store"),
	)
	m.outboxDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "outbox_depth",
		Help:        "Completions waiting for delivery",
		ConstLabels: m.constLabels,
	})
	m.recomputes = auto.NewCounter(
		m.counterOpts("stats_recomputes_total", "Stats rebuilt from full history because a record arrived out of order"),
	)
	m.indexSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "completion_index_size",
		Help:        "Distinct (user, puzzle) completions held by the in-memory store",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by route, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.authFailures = auto.NewCounter(
		m.counterOpts("auth_failures_total", "Requests rejected because the credential did not verify"),
	)
}

// RecordGameCompleted counts a newly recorded completion and its score.
func RecordGameCompleted(won bool, score int) {
	result := ResultLost
	if won {
		result = ResultWon
	}
	globalManager.gamesCompleted.WithLabelValues(result).Inc()
	globalManager.finalScore.Observe(float64(score))
}

// RecordCompletionDuplicate counts a completion already on record.
func RecordCompletionDuplicate() {
	globalManager.completionDuplicate.Inc()
}

// RecordHintPurchased counts an accepted hint purchase.
func RecordHintPurchased(hintID string) {
	globalManager.hintsPurchased.WithLabelValues(hintID).Inc()
}

// RecordHintRejected counts a rejected hint purchase.
func RecordHintRejected(reason string) {
	globalManager.hintsRejected.WithLabelValues(reason).Inc()
}

// RecordGuess counts a guess by outcome.
func RecordGuess(outcome string) {
	globalManager.guesses.WithLabelValues(outcome).Inc()
}

// ObserveStore records latency (and failure, when err != nil) of a store call.
func ObserveStore(backend, op string, started time.Time, err error) {
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(float64(time.Since(started).Microseconds()) / 1000)
	if err != nil {
		globalManager.storeErrors.WithLabelValues(backend, op).Inc()
	}
}

// RecordSyncFailure counts a completion that stayed local.
func RecordSyncFailure() {
	globalManager.syncFailures.Inc()
}

// UpdateOutboxDepth sets the number of pending completions.
func UpdateOutboxDepth(n int) {
	globalManager.outboxDepth.Set(float64(n))
}

// UpdateCompletionIndexSize sets the number of completion keys on record.
func UpdateCompletionIndexSize(n int64) {
	globalManager.indexSize.Set(float64(n))
}

// RecordStatsRecompute counts a full history replay.
func RecordStatsRecompute() {
	globalManager.recomputes.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordAuthFailure counts a rejected credential.
func RecordAuthFailure() {
	globalManager.authFailures.Inc()
}

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
