package task

import (
	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// TaskResult — result выполнения use case for Task
//
//nolint:revive // осознанное решение for ясности кода
type TaskResult struct {
	Task *taskdomain.Task
}

// UpdateResult is the outcome of a successful update.
type UpdateResult struct {
	Task    *taskdomain.Task
	Changes []Change

	// Records are the persisted audit entries. Empty when the audit write failed.
	Records []history.ChangeRecord

	// AuditRecorded is false when the task was written but its change log was not.
	AuditRecorded bool
}

// AssigneeView is the populated assignee of a listed task.
type AssigneeView struct {
	ID    id.ID  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskView is a task with its assignee populated.
type TaskView struct {
	Task     *taskdomain.Task
	Assignee *AssigneeView
}
