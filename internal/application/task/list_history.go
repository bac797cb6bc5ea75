package task

import (
	"context"
	"fmt"

	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// ListHistoryUseCase returns the change log of a task, oldest first.
type ListHistoryUseCase struct {
	tasks   Repository
	history HistoryRepository
	limit   int
}

// NewListHistoryUseCase creates a new ListHistoryUseCase. limit <= 0 means unlimited.
func NewListHistoryUseCase(tasks Repository, historyRepo HistoryRepository, limit int) *ListHistoryUseCase {
	return &ListHistoryUseCase{
		tasks:   tasks,
		history: historyRepo,
		limit:   limit,
	}
}

// Execute lists the records. Records of a deleted task are still returned.
func (uc *ListHistoryUseCase) Execute(ctx context.Context, query ListHistoryQuery) ([]history.ChangeRecord, error) {
	taskID, err := id.Parse(query.TaskID)
	if err != nil {
		return nil, ErrInvalidTaskID
	}

	records, err := uc.history.FindByTask(ctx, taskID, uc.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(records) > 0 {
		return records, nil
	}

	// No records: distinguish an untouched task from a missing one
	if _, err = loadTask(ctx, uc.tasks, query.TaskID); err != nil {
		return nil, err
	}
	return []history.ChangeRecord{}, nil
}
