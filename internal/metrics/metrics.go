// Package metrics exposes Prometheus metrics for the scoring pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Manager records pipeline events. It satisfies services.Recorder.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	jobsCreated   prometheus.Counter
	jobConflicts  prometheus.Counter
	batchesDone   prometheus.Counter
	batchesFailed prometheus.Counter
	batchLatency  prometheus.Histogram
	jobsFetched   *prometheus.CounterVec
	syncFallbacks prometheus.Counter
	queueDepth    prometheus.Gauge
}

// NewManager creates a metrics manager with its own registry unless one is
// supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "candidate_ranker",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	factory := promauto.With(m.registry)

	m.jobsCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "jobs_created_total",
		Help:      "Scoring jobs created in the job store.",
	})
	m.jobConflicts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "job_conflicts_total",
		Help:      "Scoring requests rejected because the job was still processing.",
	})
	m.batchesDone = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "batches_completed_total",
		Help:      "Batches scored successfully.",
	})
	m.batchesFailed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "batches_failed_total",
		Help:      "Batches that failed and poisoned their job.",
	})
	m.batchLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "batch_duration_seconds",
		Help:      "Time spent scoring one batch.",
		Buckets:   m.histogramBuckets,
	})
	m.jobsFetched = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "job_status_checks_total",
		Help:      "Status checks by observed job state.",
	}, []string{"state"})
	m.syncFallbacks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sync_fallbacks_total",
		Help:      "Requests scored synchronously because the job store was unavailable.",
	})
	m.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "worker_queue_depth",
		Help:      "Batches waiting for a worker.",
	})

	return m
}

func (m *Manager) JobCreated()  { m.jobsCreated.Inc() }
func (m *Manager) JobConflict() { m.jobConflicts.Inc() }

func (m *Manager) BatchCompleted(latency time.Duration) {
	m.batchesDone.Inc()
	m.batchLatency.Observe(latency.Seconds())
}

func (m *Manager) BatchFailed()            { m.batchesFailed.Inc() }
func (m *Manager) JobFetched(state string) { m.jobsFetched.WithLabelValues(state).Inc() }
func (m *Manager) SyncFallback()           { m.syncFallbacks.Inc() }
func (m *Manager) QueueDepth(depth int)    { m.queueDepth.Set(float64(depth)) }

// Registry returns the registry backing the manager.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
