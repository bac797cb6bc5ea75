package task

import (
	"fmt"
	"slices"

	"github.com/lllypuk/taskboard/internal/domain/errs"
)

// Status represents status of a task
type Status string

const (
	// StatusTodo task is waiting to be picked up
	StatusTodo Status = "todo"
	// StatusInProgress task is being worked on
	StatusInProgress Status = "in-progress"
	// StatusDone task is finished
	StatusDone Status = "done"
)

// Priority represents priority of a task
type Priority string

const (
	// PriorityLow низкий приоритет
	PriorityLow Priority = "low"
	// PriorityMedium средний приоритет
	PriorityMedium Priority = "medium"
	// PriorityHigh высокий приоритет
	PriorityHigh Priority = "high"
)

//nolint:gochecknoglobals // fixed value sets
var (
	statuses   = []Status{StatusTodo, StatusInProgress, StatusDone}
	priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}
)

// Statuses returns all allowed statuses in board order.
func Statuses() []Status {
	return slices.Clone(statuses)
}

// Priorities returns all allowed priorities, lowest first.
func Priorities() []Priority {
	return slices.Clone(priorities)
}

// IsValid checks the status against the fixed set.
func (s Status) IsValid() bool {
	return slices.Contains(statuses, s)
}

// IsValid checks the priority against the fixed set.
func (p Priority) IsValid() bool {
	return slices.Contains(priorities, p)
}

// ParseStatus validates raw and returns it as a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: status %q", errs.ErrInvalidEnum, raw)
	}
	return s, nil
}

// ParsePriority validates raw and returns it as a Priority.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: priority %q", errs.ErrInvalidEnum, raw)
	}
	return p, nil
}
