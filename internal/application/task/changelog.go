package task

import (
	"context"
	"fmt"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// ChangeLogWriter turns a diff into audit records and persists them in one batch.
type ChangeLogWriter struct {
	repo HistoryRepository
}

// NewChangeLogWriter creates a ChangeLogWriter.
func NewChangeLogWriter(repo HistoryRepository) *ChangeLogWriter {
	return &ChangeLogWriter{repo: repo}
}

// Write stores one record per change, all stamped with actor and at.
func (w *ChangeLogWriter) Write(
	ctx context.Context,
	taskID, actor id.ID,
	changes []Change,
	at time.Time,
) ([]history.ChangeRecord, error) {
	if len(changes) == 0 {
		return nil, nil
	}

	records := make([]history.ChangeRecord, 0, len(changes))
	for _, c := range changes {
		records = append(records, history.NewChangeRecord(taskID, actor, c.Field, c.OldValue, c.NewValue, at))
	}

	if err := w.repo.InsertMany(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to insert change records: %w", err)
	}

	return records, nil
}
