package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// GetTaskUseCase возвращает задачу по ID
type GetTaskUseCase struct {
	tasks Repository
}

// NewGetTaskUseCase creates a new GetTaskUseCase
func NewGetTaskUseCase(tasks Repository) *GetTaskUseCase {
	return &GetTaskUseCase{tasks: tasks}
}

// Execute loads the task.
func (uc *GetTaskUseCase) Execute(ctx context.Context, query GetTaskQuery) (TaskResult, error) {
	t, err := loadTask(ctx, uc.tasks, query.TaskID)
	if err != nil {
		return TaskResult{}, err
	}
	return TaskResult{Task: t}, nil
}

func loadTask(ctx context.Context, tasks Repository, rawID string) (*taskdomain.Task, error) {
	taskID, err := id.Parse(rawID)
	if err != nil {
		return nil, ErrInvalidTaskID
	}

	t, err := tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return t, nil
}
