package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lllypuk/taskboard/internal/worker"
)

// Replay outcomes.
const (
	ReplayOutcomeReplayed = "replayed"
	ReplayOutcomeRequeued = "requeued"
	ReplayOutcomeParked   = "parked"
)

// ReplayMetrics contains Prometheus metrics for the dead letter replay worker.
type ReplayMetrics struct {
	EntriesTotal *prometheus.CounterVec
	QueueLength  prometheus.Gauge
}

var _ worker.ReplayMetrics = (*ReplayMetrics)(nil)

// NewReplayMetrics creates and registers replay metrics with the given registerer.
func NewReplayMetrics(registerer prometheus.Registerer) *ReplayMetrics {
	factory := promauto.With(registerer)

	return &ReplayMetrics{
		EntriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_dead_letter_replays_total",
				Help: "Dead letter entries handled by the replay worker by outcome",
			},
			[]string{"event_type", "outcome"},
		),
		QueueLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "taskboard_dead_letter_queue_length",
			Help: "Entries waiting in the dead letter queue",
		}),
	}
}

// Replayed counts an entry published again.
func (m *ReplayMetrics) Replayed(eventType string) {
	m.EntriesTotal.WithLabelValues(eventType, ReplayOutcomeReplayed).Inc()
}

// Requeued counts an entry put back after a failed publish.
func (m *ReplayMetrics) Requeued(eventType string) {
	m.EntriesTotal.WithLabelValues(eventType, ReplayOutcomeRequeued).Inc()
}

// Parked counts an entry that ran out of attempts.
func (m *ReplayMetrics) Parked(eventType string) {
	m.EntriesTotal.WithLabelValues(eventType, ReplayOutcomeParked).Inc()
}

// SetQueueLength records the current queue depth.
func (m *ReplayMetrics) SetQueueLength(n int64) {
	m.QueueLength.Set(float64(n))
}
