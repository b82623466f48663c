package engagement

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the ledger's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	entriesCreated    prometheus.Counter
	entriesDeleted    prometheus.Counter
	pointsAwarded     prometheus.Counter
	streakTransitions *prometheus.CounterVec
	consistencyClamps *prometheus.CounterVec
	storageErrors     *prometheus.CounterVec
	commitDuration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		entriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_entries_created_total",
			Help: "Journal entries committed through the ledger",
		}),
		entriesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_entries_deleted_total",
			Help: "Journal entries deleted through the ledger",
		}),
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "journal_points_awarded_total",
			Help: "Points awarded across all committed entries",
		}),
		streakTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_streak_transitions_total",
			Help: "Streak state machine transitions taken by committed entries",
		}, []string{"transition"}),
		consistencyClamps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_ledger_consistency_clamps_total",
			Help: "Ledger counters clamped at zero on deletion",
		}, []string{"field"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_ledger_storage_errors_total",
			Help: "Ledger operations that failed in the store",
		}, []string{"op"}),
		commitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "journal_ledger_commit_seconds",
			Help:    "Duration of ledger transactions",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.entriesCreated, m.entriesDeleted, m.pointsAwarded,
			m.streakTransitions, m.consistencyClamps, m.storageErrors, m.commitDuration)
	}
	return m
}

func (m *Metrics) observeCreate(points int, t Transition) {
	if m == nil {
		return
	}
	m.entriesCreated.Inc()
	m.pointsAwarded.Add(float64(points))
	m.streakTransitions.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) observeDelete() {
	if m == nil {
		return
	}
	m.entriesDeleted.Inc()
}

func (m *Metrics) observeClamp(field string) {
	if m == nil {
		return
	}
	m.consistencyClamps.WithLabelValues(field).Inc()
}

func (m *Metrics) observeStorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) observeCommit(op string, start time.Time) {
	if m == nil {
		return
	}
	m.commitDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
