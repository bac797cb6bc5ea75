package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/taskboard/internal/application/appcore"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/event"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// DeleteTaskUseCase removes a task and its comments. The change log is kept.
type DeleteTaskUseCase struct {
	tasks    Repository
	comments CommentCleaner
	bus      event.Bus
	logger   *slog.Logger
}

// NewDeleteTaskUseCase creates a new DeleteTaskUseCase
func NewDeleteTaskUseCase(
	tasks Repository,
	comments CommentCleaner,
	bus event.Bus,
	logger *slog.Logger,
) *DeleteTaskUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteTaskUseCase{
		tasks:    tasks,
		comments: comments,
		bus:      bus,
		logger:   logger,
	}
}

// Execute deletes the task.
func (uc *DeleteTaskUseCase) Execute(ctx context.Context, cmd DeleteTaskCommand) error {
	t, err := loadTask(ctx, uc.tasks, cmd.TaskID)
	if err != nil {
		return err
	}

	if err = uc.tasks.Delete(ctx, t.ID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if uc.comments != nil {
		removed, cleanErr := uc.comments.DeleteByTask(ctx, t.ID)
		if cleanErr != nil {
			uc.logger.WarnContext(ctx, "failed to delete task comments",
				slog.String("task_id", t.ID.String()),
				slog.String("error", cleanErr.Error()),
			)
		} else if removed > 0 {
			uc.logger.DebugContext(ctx, "task comments deleted",
				slog.String("task_id", t.ID.String()),
				slog.Int64("count", removed),
			)
		}
	}

	publish(ctx, uc.bus, uc.logger, taskdomain.NewDeleted(t, appcore.EventMetadata(ctx, cmd.Actor)))

	return nil
}
