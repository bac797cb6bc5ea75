package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/domain/task"
)

// TaskMetrics contains Prometheus metrics for the task update flow.
type TaskMetrics struct {
	UpdatesTotal       *prometheus.CounterVec
	UpdateDuration     prometheus.Histogram
	FieldChangesTotal  *prometheus.CounterVec
	AuditWriteFailures prometheus.Counter
}

var _ taskapp.Metrics = (*TaskMetrics)(nil)

// NewTaskMetrics creates and registers task metrics with the given registerer.
func NewTaskMetrics(registerer prometheus.Registerer) *TaskMetrics {
	factory := promauto.With(registerer)

	metrics := &TaskMetrics{
		UpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_task_updates_total",
				Help: "Total number of task update requests by outcome",
			},
			[]string{"outcome"},
		),
		UpdateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskboard_task_update_duration_seconds",
			Help:    "Time to process a task update request",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		FieldChangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_task_changes_recorded_total",
				Help: "Total number of persisted field changes",
			},
			[]string{"field"},
		),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_audit_write_failures_total",
			Help: "Change log writes that failed after the task was saved",
		}),
	}

	return metrics
}

// ObserveUpdate records the outcome and latency of one update.
func (m *TaskMetrics) ObserveUpdate(outcome string, elapsed time.Duration) {
	m.UpdatesTotal.WithLabelValues(outcome).Inc()
	m.UpdateDuration.Observe(elapsed.Seconds())
}

// RecordChanges counts every persisted field.
func (m *TaskMetrics) RecordChanges(fields []task.Field) {
	for _, f := range fields {
		m.FieldChangesTotal.WithLabelValues(string(f)).Inc()
	}
}

// AuditWriteFailed counts a lost change log batch.
func (m *TaskMetrics) AuditWriteFailed() {
	m.AuditWriteFailures.Inc()
}
