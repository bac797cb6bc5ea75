package task

import (
	"time"

	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// CreateTaskCommand contains data for creating tasks
type CreateTaskCommand struct {
	BoardID     string
	ProjectID   string
	Title       string
	Description string
	Status      string // optional, by default "todo"
	Priority    string // optional, by default "medium"
	Assignee    string // optional
	DueDate     *time.Time
	Actor       id.ID
}

// UpdateTaskCommand contains a partial update of a task
type UpdateTaskCommand struct {
	TaskID string
	Patch  taskdomain.Patch
	Actor  id.ID // zero for anonymous callers
}

// DeleteTaskCommand contains data for deleting a task
type DeleteTaskCommand struct {
	TaskID string
	Actor  id.ID
}

// GetTaskQuery запрос задачи по ID
type GetTaskQuery struct {
	TaskID string
}

// ListBoardTasksQuery запрос задач доски
type ListBoardTasksQuery struct {
	BoardID string
}

// ListHistoryQuery запрос истории изменений задачи
type ListHistoryQuery struct {
	TaskID string
}
