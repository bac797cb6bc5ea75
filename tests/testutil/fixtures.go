package testutil

import (
	"time"

	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// CreateTaskCommandFixture returns a valid create command for the given board.
func CreateTaskCommandFixture(projectID, boardID id.ID) taskapp.CreateTaskCommand {
	return taskapp.CreateTaskCommand{
		ProjectID: projectID.String(),
		BoardID:   boardID.String(),
		Title:     "Test Task",
		Actor:     id.New(),
	}
}

// WithTitle модифицирует title
func WithTitle(title string) func(*taskapp.CreateTaskCommand) {
	return func(cmd *taskapp.CreateTaskCommand) {
		cmd.Title = title
	}
}

// WithAssignee добавляет assignee
func WithAssignee(assigneeID id.ID) func(*taskapp.CreateTaskCommand) {
	return func(cmd *taskapp.CreateTaskCommand) {
		cmd.Assignee = assigneeID.String()
	}
}

// WithDueDate добавляет дедлайн
func WithDueDate(dueDate time.Time) func(*taskapp.CreateTaskCommand) {
	return func(cmd *taskapp.CreateTaskCommand) {
		cmd.DueDate = &dueDate
	}
}

// BuildCreateTaskCommand creates команду с модификаторами
func BuildCreateTaskCommand(
	projectID, boardID id.ID,
	modifiers ...func(*taskapp.CreateTaskCommand),
) taskapp.CreateTaskCommand {
	cmd := CreateTaskCommandFixture(projectID, boardID)
	for _, modifier := range modifiers {
		modifier(&cmd)
	}
	return cmd
}

// PatchBuilder assembles a task patch field by field.
type PatchBuilder struct {
	patch taskdomain.Patch
}

// NewPatch starts an empty patch.
func NewPatch() *PatchBuilder {
	return &PatchBuilder{}
}

func (b *PatchBuilder) Title(v string) *PatchBuilder {
	b.patch.Title = taskdomain.Some(v)
	return b
}

func (b *PatchBuilder) Description(v string) *PatchBuilder {
	b.patch.Description = taskdomain.Some(v)
	return b
}

func (b *PatchBuilder) Status(v string) *PatchBuilder {
	b.patch.Status = taskdomain.Some(v)
	return b
}

func (b *PatchBuilder) Priority(v string) *PatchBuilder {
	b.patch.Priority = taskdomain.Some(v)
	return b
}

func (b *PatchBuilder) Assignee(v string) *PatchBuilder {
	b.patch.Assignee = taskdomain.Some(v)
	return b
}

// ClearAssignee sends an explicit null for assignee.
func (b *PatchBuilder) ClearAssignee() *PatchBuilder {
	b.patch.Assignee = taskdomain.Null[string]()
	return b
}

func (b *PatchBuilder) DueDate(v time.Time) *PatchBuilder {
	b.patch.DueDate = taskdomain.Some(v)
	return b
}

// ClearDueDate sends an explicit null for dueDate.
func (b *PatchBuilder) ClearDueDate() *PatchBuilder {
	b.patch.DueDate = taskdomain.Null[time.Time]()
	return b
}

// Build returns the assembled patch.
func (b *PatchBuilder) Build() taskdomain.Patch {
	return b.patch
}

// UpdateCommand wraps the patch into an update command.
func (b *PatchBuilder) UpdateCommand(taskID, actor id.ID) taskapp.UpdateTaskCommand {
	return taskapp.UpdateTaskCommand{
		TaskID: taskID.String(),
		Patch:  b.patch,
		Actor:  actor,
	}
}
