package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
	outcomeFailed  = "failed"
)

// SyncMetrics tracks customer synchronization outcomes and duration
type SyncMetrics struct {
	syncs     *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewSyncMetrics registers sync metrics with provided registerer
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)
	return &SyncMetrics{
		syncs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customersync_syncs_total",
			Help: "Total number of external customer synchronizations by outcome",
		}, []string{"outcome"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customersync_conflicts_total",
			Help: "Total number of reconciliation conflicts by kind",
		}, []string{"kind"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "customersync_sync_duration_seconds",
			Help:    "Duration of external customer synchronization",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveSync records successful synchronization started at start
func (m *SyncMetrics) ObserveSync(created bool, start time.Time) {
	outcome := outcomeUpdated
	if created {
		outcome = outcomeCreated
	}
	m.syncs.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}

// ObserveFailure records failed synchronization
func (m *SyncMetrics) ObserveFailure(start time.Time) {
	m.syncs.WithLabelValues(outcomeFailed).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}

// IncrementConflict records conflict of provided kind
func (m *SyncMetrics) IncrementConflict(kind string) {
	m.conflicts.WithLabelValues(kind).Inc()
}
