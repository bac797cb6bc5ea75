package board

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
)

// Type is the board methodology.
type Type string

const (
	TypeKanban Type = "kanban"
	TypeScrum  Type = "scrum"
)

// IsValid checks the board type.
func (t Type) IsValid() bool {
	return t == TypeKanban || t == TypeScrum
}

// ParseType validates raw. An empty value means kanban.
func ParseType(raw string) (Type, error) {
	if raw == "" {
		return TypeKanban, nil
	}
	t := Type(raw)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: board type %q", errs.ErrInvalidEnum, raw)
	}
	return t, nil
}

// Column is a board lane bound to a task status.
type Column struct {
	Order  int         `json:"order"`
	Name   string      `json:"name"`
	Status task.Status `json:"status"`
}

// DefaultColumns returns one column per task status.
func DefaultColumns() []Column {
	return []Column{
		{Order: 1, Name: "To Do", Status: task.StatusTodo},
		{Order: 2, Name: "In Progress", Status: task.StatusInProgress},
		{Order: 3, Name: "Done", Status: task.StatusDone},
	}
}

// Board belongs to exactly one project.
type Board struct {
	ID        id.ID     `json:"id"`
	ProjectID id.ID     `json:"projectId"`
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	Columns   []Column  `json:"columns"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBoard creates a board with the default columns.
func NewBoard(projectID id.ID, name string, boardType Type) (*Board, error) {
	if projectID.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.ErrInvalidInput
	}
	if boardType == "" {
		boardType = TypeKanban
	}
	if !boardType.IsValid() {
		return nil, errs.ErrInvalidEnum
	}

	now := time.Now().UTC()
	return &Board{
		ID:        id.New(),
		ProjectID: projectID,
		Name:      name,
		Type:      boardType,
		Columns:   DefaultColumns(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// BelongsTo reports whether the board is part of the project.
func (b *Board) BelongsTo(projectID id.ID) bool {
	return b.ProjectID == projectID
}

// Rename changes the board name
func (b *Board) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.ErrInvalidInput
	}
	b.Name = name
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// ChangeType switches between kanban and scrum
func (b *Board) ChangeType(t Type) error {
	if !t.IsValid() {
		return errs.ErrInvalidEnum
	}
	b.Type = t
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// ColumnFor returns the column holding tasks with status s.
func (b *Board) ColumnFor(s task.Status) (Column, bool) {
	i := slices.IndexFunc(b.Columns, func(c Column) bool { return c.Status == s })
	if i < 0 {
		return Column{}, false
	}
	return b.Columns[i], true
}
