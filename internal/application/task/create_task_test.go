package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/application/reference"
	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
	"github.com/lllypuk/taskboard/tests/testutil"
)

func TestCreateTaskUseCase_Success(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "alice")
	due := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	uc := taskapp.NewCreateTaskUseCase(f.tasks, f.resolver, f.bus, nil)

	result, err := uc.Execute(context.Background(), taskapp.CreateTaskCommand{
		BoardID:     f.board.ID.String(),
		ProjectID:   f.project.ID.String(),
		Title:       " Ship it ",
		Description: "details",
		Priority:    "high",
		Assignee:    alice.ID().String(),
		DueDate:     &due,
		Actor:       alice.ID(),
	})

	require.NoError(t, err)
	created := result.Task
	assert.Equal(t, "Ship it", created.Title)
	assert.Equal(t, task.StatusTodo, created.Status)
	assert.Equal(t, task.PriorityHigh, created.Priority)
	assert.Equal(t, alice.ID(), created.AssigneeID())
	assert.True(t, due.Equal(*created.DueDate))
	assert.NotNil(t, f.tasks.Stored(created.ID))
	assert.Len(t, f.bus.OfType(task.EventTypeTaskCreated), 1)

	// Creation is not a change and leaves no history
	assert.Empty(t, f.history.Records())
}

func TestCreateTaskUseCase_Validation(t *testing.T) {
	f := newFixture(t)
	otherProject := id.New()
	foreignBoard, err := board.NewBoard(otherProject, "Foreign", board.TypeScrum)
	require.NoError(t, err)
	f.boards.AddBoard(foreignBoard)
	uc := taskapp.NewCreateTaskUseCase(f.tasks, f.resolver, nil, nil)

	valid := func() taskapp.CreateTaskCommand {
		return taskapp.CreateTaskCommand{
			BoardID:   f.board.ID.String(),
			ProjectID: f.project.ID.String(),
			Title:     "Title",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*taskapp.CreateTaskCommand)
		wantErr error
	}{
		{"malformed project", func(c *taskapp.CreateTaskCommand) { c.ProjectID = "p" }, reference.ErrInvalidProjectID},
		{"missing project", func(c *taskapp.CreateTaskCommand) { c.ProjectID = id.New().String() }, reference.ErrProjectNotFound},
		{"malformed board", func(c *taskapp.CreateTaskCommand) { c.BoardID = "b" }, reference.ErrInvalidBoardID},
		{"missing board", func(c *taskapp.CreateTaskCommand) { c.BoardID = id.New().String() }, reference.ErrBoardNotFound},
		{"board of another project", func(c *taskapp.CreateTaskCommand) { c.BoardID = foreignBoard.ID.String() }, taskapp.ErrBoardProjectMismatch},
		{"empty title", func(c *taskapp.CreateTaskCommand) { c.Title = "  " }, taskapp.ErrEmptyTitle},
		{"invalid status", func(c *taskapp.CreateTaskCommand) { c.Status = "open" }, taskapp.ErrInvalidStatus},
		{"invalid priority", func(c *taskapp.CreateTaskCommand) { c.Priority = "p1" }, taskapp.ErrInvalidPriority},
		{"malformed assignee", func(c *taskapp.CreateTaskCommand) { c.Assignee = "alice" }, taskapp.ErrInvalidAssignee},
		{"missing assignee", func(c *taskapp.CreateTaskCommand) { c.Assignee = id.New().String() }, taskapp.ErrAssigneeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := valid()
			tt.mutate(&cmd)

			_, err := uc.Execute(context.Background(), cmd)

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 0, f.tasks.CallCount("Create"))
}

func TestCreateTaskUseCase_ExplicitStatus(t *testing.T) {
	f := newFixture(t)
	uc := taskapp.NewCreateTaskUseCase(f.tasks, f.resolver, nil, nil)

	cmd := testutil.BuildCreateTaskCommand(f.project.ID, f.board.ID, testutil.WithTitle("Title"))
	cmd.Status = "done"
	result, err := uc.Execute(context.Background(), cmd)

	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, result.Task.Status)
	assert.Equal(t, task.PriorityMedium, result.Task.Priority)
}
