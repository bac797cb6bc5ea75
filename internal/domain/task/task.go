package task

import (
	"strings"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// Task is a unit of work placed on a board.
type Task struct {
	ID          id.ID      `json:"id"`
	BoardID     id.ID      `json:"boardId"`
	ProjectID   id.ID      `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Assignee    *id.ID     `json:"assignee"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTask creates a task in the todo column with medium priority.
func NewTask(boardID, projectID id.ID, title string) (*Task, error) {
	if boardID.IsZero() || projectID.IsZero() {
		return nil, errs.ErrInvalidInput
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errs.ErrInvalidInput
	}

	now := Timestamp(time.Now())
	return &Task{
		ID:        id.New(),
		BoardID:   boardID,
		ProjectID: projectID,
		Title:     title,
		Status:    StatusTodo,
		Priority:  PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AssigneeID returns the assignee or the zero ID when unassigned.
func (t *Task) AssigneeID() id.ID {
	if t.Assignee == nil {
		return ""
	}
	return *t.Assignee
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	c := *t
	if t.Assignee != nil {
		a := *t.Assignee
		c.Assignee = &a
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

// Timestamp normalizes t to the millisecond UTC precision the store keeps.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
