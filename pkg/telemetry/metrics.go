package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics provides Prometheus metrics for the versioning engine.
type Metrics struct {
	config MetricsConfig

	// Lifecycle metrics
	draftsCreated      *prometheus.CounterVec
	draftsDiscarded    prometheus.Counter
	versionsPublished  prometheus.Counter
	transitionDuration *prometheus.HistogramVec

	// Mutation metrics
	mutationsApplied  *prometheus.CounterVec
	mutationsRejected *prometheus.CounterVec

	// Lineage metrics
	archivedVersions prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		draftsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drafts_created_total",
				Help:      "Total number of drafts created",
			},
			[]string{"source"}, // "published" clone or "restore"
		),
		draftsDiscarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drafts_discarded_total",
				Help:      "Total number of drafts discarded",
			},
		),
		versionsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "versions_published_total",
				Help:      "Total number of versions published",
			},
		),
		transitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transition_duration_seconds",
				Help:      "Duration of lifecycle transitions in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),
		mutationsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_applied_total",
				Help:      "Total number of structural mutations applied",
			},
			[]string{"operation"},
		),
		mutationsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_rejected_total",
				Help:      "Total number of structural mutations rejected",
			},
			[]string{"operation", "kind"},
		),
		archivedVersions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "archived_versions",
				Help:      "Number of archived versions in the lineage",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.draftsCreated,
		m.draftsDiscarded,
		m.versionsPublished,
		m.transitionDuration,
		m.mutationsApplied,
		m.mutationsRejected,
		m.archivedVersions,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// RecordDraftCreated records a draft creation. Source is "published"
// for a clone of the live version or "restore" for a historical clone.
func (m *Metrics) RecordDraftCreated(source string) {
	if m.registry == nil {
		return
	}
	m.draftsCreated.WithLabelValues(source).Inc()
}

// RecordDraftDiscarded records a draft discard.
func (m *Metrics) RecordDraftDiscarded() {
	if m.registry == nil {
		return
	}
	m.draftsDiscarded.Inc()
}

// RecordVersionPublished records a successful publish.
func (m *Metrics) RecordVersionPublished() {
	if m.registry == nil {
		return
	}
	m.versionsPublished.Inc()
}

// RecordTransition records the duration of a lifecycle transition.
func (m *Metrics) RecordTransition(operation string, duration time.Duration) {
	if m.registry == nil {
		return
	}
	m.transitionDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordMutationApplied records a structural mutation that succeeded.
func (m *Metrics) RecordMutationApplied(operation string) {
	if m.registry == nil {
		return
	}
	m.mutationsApplied.WithLabelValues(operation).Inc()
}

// RecordMutationRejected records a structural mutation that was refused,
// labeled with the error kind.
func (m *Metrics) RecordMutationRejected(operation, kind string) {
	if m.registry == nil {
		return
	}
	m.mutationsRejected.WithLabelValues(operation, kind).Inc()
}

// SetArchivedVersions sets the archived version count gauge.
func (m *Metrics) SetArchivedVersions(count float64) {
	if m.registry == nil {
		return
	}
	m.archivedVersions.Set(count)
}

// Timer measures operation durations.
type Timer struct {
	start time.Time
}

// NewTimer creates a started timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer starts the metrics HTTP server in the background.
func (m *Metrics) StartMetricsServer() error {
	if m.registry == nil {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:    m.config.ListenAddress,
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return nil
}
