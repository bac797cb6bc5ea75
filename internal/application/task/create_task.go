package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lllypuk/taskboard/internal/application/appcore"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/event"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// CreateTaskUseCase обрабатывает создание новой задачи
type CreateTaskUseCase struct {
	tasks    Repository
	resolver ReferenceResolver
	bus      event.Bus
	logger   *slog.Logger
}

// NewCreateTaskUseCase creates a new CreateTaskUseCase
func NewCreateTaskUseCase(
	tasks Repository,
	resolver ReferenceResolver,
	bus event.Bus,
	logger *slog.Logger,
) *CreateTaskUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateTaskUseCase{
		tasks:    tasks,
		resolver: resolver,
		bus:      bus,
		logger:   logger,
	}
}

// Execute creates the task after checking that the board belongs to the project.
func (uc *CreateTaskUseCase) Execute(ctx context.Context, cmd CreateTaskCommand) (TaskResult, error) {
	// 1. Resolve references
	proj, err := uc.resolver.ResolveProject(ctx, cmd.ProjectID)
	if err != nil {
		return TaskResult{}, err
	}
	brd, err := uc.resolver.ResolveBoard(ctx, cmd.BoardID)
	if err != nil {
		return TaskResult{}, err
	}
	if !brd.BelongsTo(proj.ID) {
		return TaskResult{}, ErrBoardProjectMismatch
	}

	// 2. Build the task with defaults
	t, err := taskdomain.NewTask(brd.ID, proj.ID, cmd.Title)
	if err != nil {
		return TaskResult{}, ErrEmptyTitle
	}
	t.Description = cmd.Description

	if cmd.Status != "" {
		if t.Status, err = taskdomain.ParseStatus(cmd.Status); err != nil {
			return TaskResult{}, ErrInvalidStatus
		}
	}
	if cmd.Priority != "" {
		if t.Priority, err = taskdomain.ParsePriority(cmd.Priority); err != nil {
			return TaskResult{}, ErrInvalidPriority
		}
	}
	if raw := strings.TrimSpace(cmd.Assignee); raw != "" {
		assignee, resolveErr := uc.resolver.ResolveUser(ctx, raw)
		switch {
		case resolveErr == nil:
			t.Assignee = assignee.ID().Ptr()
		case errors.Is(resolveErr, errs.ErrInvalidReference):
			return TaskResult{}, ErrInvalidAssignee
		case errors.Is(resolveErr, errs.ErrNotFound):
			return TaskResult{}, ErrAssigneeNotFound
		default:
			return TaskResult{}, resolveErr
		}
	}
	if cmd.DueDate != nil {
		due := taskdomain.Timestamp(*cmd.DueDate)
		t.DueDate = &due
	}

	// 3. Persist
	if err = uc.tasks.Create(ctx, t); err != nil {
		return TaskResult{}, fmt.Errorf("failed to create task: %w", err)
	}

	// 4. Notify
	publish(ctx, uc.bus, uc.logger, taskdomain.NewCreated(t, appcore.EventMetadata(ctx, cmd.Actor)))

	return TaskResult{Task: t}, nil
}
