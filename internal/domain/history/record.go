package history

import (
	"time"

	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
)

// ChangeRecord is an append-only audit entry for one changed task field.
type ChangeRecord struct {
	ID        id.ID      `json:"id"`
	TaskID    id.ID      `json:"taskId"`
	UserID    *id.ID     `json:"userId"`
	Field     task.Field `json:"field"`
	OldValue  Value      `json:"oldValue"`
	NewValue  Value      `json:"newValue"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewChangeRecord creates a record. A zero actor is stored as null.
func NewChangeRecord(
	taskID, actor id.ID,
	field task.Field,
	oldValue, newValue Value,
	createdAt time.Time,
) ChangeRecord {
	return ChangeRecord{
		ID:        id.New(),
		TaskID:    taskID,
		UserID:    actor.Ptr(),
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: task.Timestamp(createdAt),
	}
}
