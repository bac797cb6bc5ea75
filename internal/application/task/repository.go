package task

import (
	"context"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/project"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
	"github.com/lllypuk/taskboard/internal/domain/user"
)

// Repository хранит задачи
type Repository interface {
	// FindByID находит задачу по ID
	FindByID(ctx context.Context, taskID id.ID) (*taskdomain.Task, error)

	// FindByBoard возвращает задачи доски в порядке создания
	FindByBoard(ctx context.Context, boardID id.ID) ([]*taskdomain.Task, error)

	// Create сохраняет новую задачу
	Create(ctx context.Context, t *taskdomain.Task) error

	// Update writes the listed fields plus updated_at in a single write.
	// A non-zero precondition makes the write apply only while the stored
	// updated_at still equals it; otherwise errs.ErrConcurrentModification.
	Update(ctx context.Context, t *taskdomain.Task, fields []taskdomain.Field, precondition time.Time) error

	// Delete удаляет задачу
	Delete(ctx context.Context, taskID id.ID) error
}

// HistoryRepository is the append-only change log store.
type HistoryRepository interface {
	// InsertMany appends records in one batch
	InsertMany(ctx context.Context, records []history.ChangeRecord) error

	// FindByTask returns records oldest first. limit <= 0 means no limit.
	FindByTask(ctx context.Context, taskID id.ID, limit int) ([]history.ChangeRecord, error)
}

// ReferenceResolver validates cross-references of a task.
type ReferenceResolver interface {
	ResolveUser(ctx context.Context, raw string) (*user.User, error)
	ResolveBoard(ctx context.Context, raw string) (*board.Board, error)
	ResolveProject(ctx context.Context, raw string) (*project.Project, error)
}

// UserLookup loads assignees for list views.
type UserLookup interface {
	FindByIDs(ctx context.Context, ids []id.ID) ([]*user.User, error)
}

// CommentCleaner removes the comments of a deleted task.
type CommentCleaner interface {
	DeleteByTask(ctx context.Context, taskID id.ID) (int64, error)
}
