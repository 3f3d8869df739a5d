// Package metrics exposes Prometheus metrics for the store and the sync
// dispatcher.
package metrics

import (
	"net/http"
	"strconv"
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

// WithRegistry registers metrics on r instead of a private registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithHistogramBuckets sets custom buckets for the latency histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// Manager owns every metric. It satisfies store.Observer and
// syncer.Observer.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	transactions      *prometheus.CounterVec
	transactionTime   *prometheus.HistogramVec
	migrationsApplied *prometheus.CounterVec
	schemaVersion     prometheus.Gauge
	syncAttempts      *prometheus.CounterVec
}

// NewManager creates a Manager on a private registry unless WithRegistry is
// given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "piste",
		buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.transactions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "transactions_total",
		Help:      "Store transactions by collection scope and outcome.",
	}, []string{"scope", "outcome"})

	m.transactionTime = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "transaction_seconds",
		Help:      "Store transaction latency by collection scope.",
		Buckets:   m.buckets,
	}, []string{"scope"})

	m.migrationsApplied = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "migrations_applied_total",
		Help:      "Schema steps applied since process start.",
	}, []string{"version"})

	m.schemaVersion = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "schema_version",
		Help:      "Schema version of the open store.",
	})

	m.syncAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "attempts_total",
		Help:      "Best-effort sync attempts by collection and outcome.",
	}, []string{"collection", "outcome"})

	return m
}

// TransactionFinished records one store transaction.
func (m *Manager) TransactionFinished(scope string, committed bool, elapsed time.Duration) {
	outcome := "committed"
	if !committed {
		outcome = "aborted"
	}
	m.transactions.WithLabelValues(scope, outcome).Inc()
	m.transactionTime.WithLabelValues(scope).Observe(elapsed.Seconds())
}

// MigrationApplied records one applied schema step.
func (m *Manager) MigrationApplied(version int) {
	m.migrationsApplied.WithLabelValues(strconv.Itoa(version)).Inc()
}

// SchemaVersion records the version the store settled on.
func (m *Manager) SchemaVersion(version int) {
	m.schemaVersion.Set(float64(version))
}

// SyncAttempt records one best-effort sync publish.
func (m *Manager) SyncAttempt(collection, outcome string) {
	m.syncAttempts.WithLabelValues(collection, outcome).Inc()
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
