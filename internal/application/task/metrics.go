package task

import (
	"time"

	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// Update outcomes reported to Metrics.
const (
	OutcomeUpdated   = "updated"
	OutcomeNoChanges = "no_changes"
	OutcomeRejected  = "rejected"
	OutcomeNotFound  = "not_found"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

// Metrics receives signals from the update flow.
type Metrics interface {
	ObserveUpdate(outcome string, elapsed time.Duration)
	RecordChanges(fields []taskdomain.Field)
	AuditWriteFailed()
}

type noopMetrics struct{}

func (noopMetrics) ObserveUpdate(string, time.Duration) {}
func (noopMetrics) RecordChanges([]taskdomain.Field)    {}
func (noopMetrics) AuditWriteFailed()                   {}
