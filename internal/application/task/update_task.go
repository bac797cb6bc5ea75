package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lllypuk/taskboard/internal/application/appcore"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/event"
	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
)

// UpdateTaskUseCase applies a partial update to a task and records one audit
// entry per changed field.
type UpdateTaskUseCase struct {
	tasks       Repository
	diff        *DiffEngine
	changelog   *ChangeLogWriter
	bus         event.Bus
	metrics     Metrics
	logger      *slog.Logger
	clock       appcore.Clock
	conditional bool
}

// UpdateOption configures UpdateTaskUseCase.
type UpdateOption func(*UpdateTaskUseCase)

// WithEventBus publishes task.updated after a successful update.
func WithEventBus(bus event.Bus) UpdateOption {
	return func(uc *UpdateTaskUseCase) {
		uc.bus = bus
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) UpdateOption {
	return func(uc *UpdateTaskUseCase) {
		if m != nil {
			uc.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) UpdateOption {
	return func(uc *UpdateTaskUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(clock appcore.Clock) UpdateOption {
	return func(uc *UpdateTaskUseCase) {
		if clock != nil {
			uc.clock = clock
		}
	}
}

// WithConditionalWrite makes the task write compare-and-swap on updated_at.
func WithConditionalWrite(enabled bool) UpdateOption {
	return func(uc *UpdateTaskUseCase) {
		uc.conditional = enabled
	}
}

// NewUpdateTaskUseCase creates a new UpdateTaskUseCase
func NewUpdateTaskUseCase(
	tasks Repository,
	diff *DiffEngine,
	changelog *ChangeLogWriter,
	opts ...UpdateOption,
) *UpdateTaskUseCase {
	uc := &UpdateTaskUseCase{
		tasks:     tasks,
		diff:      diff,
		changelog: changelog,
		metrics:   noopMetrics{},
		logger:    slog.Default(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute runs the update. Validation failures leave the store untouched.
// Once the task write starts the operation ignores cancellation of ctx.
func (uc *UpdateTaskUseCase) Execute(ctx context.Context, cmd UpdateTaskCommand) (UpdateResult, error) {
	started := uc.clock()

	result, outcome, err := uc.execute(ctx, cmd)
	uc.metrics.ObserveUpdate(outcome, uc.clock().Sub(started))

	return result, err
}

func (uc *UpdateTaskUseCase) execute(ctx context.Context, cmd UpdateTaskCommand) (UpdateResult, string, error) {
	// 1. Resolve the target task
	taskID, err := id.Parse(cmd.TaskID)
	if err != nil {
		return UpdateResult{}, OutcomeRejected, ErrInvalidTaskID
	}

	current, err := uc.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return UpdateResult{}, OutcomeNotFound, ErrTaskNotFound
		}
		return UpdateResult{}, OutcomeError, fmt.Errorf("failed to load task: %w", err)
	}

	// 2. Validate, resolve and diff the present fields
	diff, err := uc.diff.Compute(ctx, current, cmd.Patch)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return UpdateResult{}, OutcomeNotFound, err
		}
		if isClientError(err) {
			return UpdateResult{}, OutcomeRejected, err
		}
		return UpdateResult{}, OutcomeError, err
	}

	// 3. Nothing to do is a client error
	if diff.IsEmpty() {
		return UpdateResult{}, OutcomeNoChanges, ErrNoValidChanges
	}

	// 4. Single task write
	writeCtx := context.WithoutCancel(ctx)
	writtenAt := nextUpdatedAt(uc.clock(), current.UpdatedAt)
	diff.Updated.UpdatedAt = writtenAt

	var precondition time.Time
	if uc.conditional {
		precondition = current.UpdatedAt
	}

	if err = uc.tasks.Update(writeCtx, diff.Updated, diff.Fields(), precondition); err != nil {
		switch {
		case errors.Is(err, errs.ErrConcurrentModification):
			return UpdateResult{}, OutcomeConflict, ErrConcurrentUpdate
		case errors.Is(err, errs.ErrNotFound):
			return UpdateResult{}, OutcomeNotFound, ErrTaskNotFound
		default:
			return UpdateResult{}, OutcomeError, fmt.Errorf("failed to update task: %w", err)
		}
	}

	// 5. Audit trail, stamped no earlier than the task write
	recordedAt := uc.clock()
	if recordedAt.Before(writtenAt) {
		recordedAt = writtenAt
	}

	result := UpdateResult{
		Task:    diff.Updated,
		Changes: diff.Changes,
	}

	records, err := uc.changelog.Write(writeCtx, taskID, cmd.Actor, diff.Changes, recordedAt)
	if err != nil {
		uc.metrics.AuditWriteFailed()
		uc.logger.ErrorContext(ctx, "audit write failed",
			slog.String("task_id", taskID.String()),
			slog.String("user_id", cmd.Actor.String()),
			slog.Any("fields", diff.Fields()),
			slog.Time("updated_at", writtenAt),
			slog.String("error", err.Error()),
		)
	} else {
		result.Records = records
		result.AuditRecorded = true
		uc.metrics.RecordChanges(diff.Fields())
	}

	// 6. Notify subscribers
	publish(writeCtx, uc.bus, uc.logger,
		taskdomain.NewUpdated(diff.Updated, fieldChanges(diff.Changes), appcore.EventMetadata(ctx, cmd.Actor)))

	return result, OutcomeUpdated, nil
}

// nextUpdatedAt returns now at store precision, forced strictly after prev.
func nextUpdatedAt(now, prev time.Time) time.Time {
	next := taskdomain.Timestamp(now)
	if !next.After(prev) {
		next = taskdomain.Timestamp(prev).Add(time.Millisecond)
	}
	return next
}

func isClientError(err error) bool {
	return errors.Is(err, errs.ErrInvalidInput) ||
		errors.Is(err, errs.ErrInvalidEnum) ||
		errors.Is(err, errs.ErrInvalidReference)
}

func fieldChanges(changes []Change) []taskdomain.FieldChange {
	out := make([]taskdomain.FieldChange, 0, len(changes))
	for _, c := range changes {
		out = append(out, taskdomain.FieldChange{
			Field:    c.Field,
			OldValue: c.OldValue.Raw(),
			NewValue: c.NewValue.Raw(),
		})
	}
	return out
}
