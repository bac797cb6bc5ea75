package task

import (
	"github.com/lllypuk/taskboard/internal/domain/event"
)

const (
	// EventTypeTaskCreated тип события создания задачи
	EventTypeTaskCreated = "task.created"
	// EventTypeTaskUpdated тип события изменения задачи
	EventTypeTaskUpdated = "task.updated"
	// EventTypeTaskDeleted тип события удаления задачи
	EventTypeTaskDeleted = "task.deleted"

	aggregateType = "Task"
)

// FieldChange is a single changed field as published to subscribers.
type FieldChange struct {
	Field    Field `json:"field"`
	OldValue any   `json:"oldValue"`
	NewValue any   `json:"newValue"`
}

// Created событие создания задачи
type Created struct {
	event.BaseEvent

	Task *Task `json:"task"`
}

// Updated событие изменения задачи
type Updated struct {
	event.BaseEvent

	Task    *Task         `json:"task"`
	Changes []FieldChange `json:"changes"`
}

// Deleted событие удаления задачи
type Deleted struct {
	event.BaseEvent

	TaskID  string `json:"taskId"`
	BoardID string `json:"boardId"`
}

// NewCreated creates a task.created event.
func NewCreated(t *Task, metadata event.Metadata) *Created {
	return &Created{
		BaseEvent: event.NewBaseEvent(EventTypeTaskCreated, t.ID.String(), aggregateType, metadata),
		Task:      t,
	}
}

// NewUpdated creates a task.updated event.
func NewUpdated(t *Task, changes []FieldChange, metadata event.Metadata) *Updated {
	return &Updated{
		BaseEvent: event.NewBaseEvent(EventTypeTaskUpdated, t.ID.String(), aggregateType, metadata),
		Task:      t,
		Changes:   changes,
	}
}

// NewDeleted creates a task.deleted event.
func NewDeleted(t *Task, metadata event.Metadata) *Deleted {
	return &Deleted{
		BaseEvent: event.NewBaseEvent(EventTypeTaskDeleted, t.ID.String(), aggregateType, metadata),
		TaskID:    t.ID.String(),
		BoardID:   t.BoardID.String(),
	}
}

// ScopeID routes the event to the task's board.
func (e *Created) ScopeID() string { return e.Task.BoardID.String() }

// ScopeID routes the event to the task's board.
func (e *Updated) ScopeID() string { return e.Task.BoardID.String() }

// ScopeID routes the event to the task's board.
func (e *Deleted) ScopeID() string { return e.BoardID }
