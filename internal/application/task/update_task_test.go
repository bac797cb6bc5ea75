package task_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/application/appcore"
	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
	"github.com/lllypuk/taskboard/tests/testutil"
)

func TestUpdateTaskUseCase_StatusChange(t *testing.T) {
	// Arrange
	f := newFixture(t)
	original := f.seedTask(t)
	actor := id.New()
	uc := f.updateUseCase()

	// Act
	result, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch: task.Patch{
			Title:  task.Some("A"),
			Status: task.Some("in-progress"),
		},
		Actor: actor,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, result.Task.Status)
	assert.Equal(t, "A", result.Task.Title)
	assert.True(t, result.Task.UpdatedAt.After(original.UpdatedAt))
	assert.True(t, result.AuditRecorded)

	stored := f.tasks.Stored(original.ID)
	assert.Equal(t, task.StatusInProgress, stored.Status)
	assert.Equal(t, result.Task.UpdatedAt, stored.UpdatedAt)

	records := f.history.Records()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, original.ID, rec.TaskID)
	assert.Equal(t, task.FieldStatus, rec.Field)
	assert.True(t, rec.OldValue.Equal(history.Enum("todo")))
	assert.True(t, rec.NewValue.Equal(history.Enum("in-progress")))
	require.NotNil(t, rec.UserID)
	assert.Equal(t, actor, *rec.UserID)
	assert.False(t, rec.CreatedAt.Before(stored.UpdatedAt))

	updates := f.tasks.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, []task.Field{task.FieldStatus}, updates[0].Fields)
	assert.True(t, updates[0].Precondition.IsZero())

	assert.Equal(t, 1, f.metrics.outcomes[taskapp.OutcomeUpdated])
	assert.Equal(t, []task.Field{task.FieldStatus}, f.metrics.changed)
}

func TestUpdateTaskUseCase_ChangedFieldsOnly(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	alice := f.seedUser(t, "alice")
	due := time.Date(2027, 1, 15, 10, 0, 0, 0, time.UTC)
	uc := f.updateUseCase()

	result, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch: task.Patch{
			Title:       task.Some(" Renamed "),
			Description: task.Some(""),
			Priority:    task.Some("high"),
			Assignee:    task.Some(alice.ID().String()),
			DueDate:     task.Some(due),
		},
		Actor: alice.ID(),
	})
	require.NoError(t, err)

	// Description "" equals the stored "" and is not recorded
	wantFields := []task.Field{task.FieldTitle, task.FieldPriority, task.FieldAssignee, task.FieldDueDate}
	records := f.history.Records()
	require.Len(t, records, len(wantFields))
	require.Len(t, result.Records, len(wantFields))

	stored := f.tasks.Stored(original.ID)
	for i, rec := range records {
		assert.Equal(t, wantFields[i], rec.Field)
		assert.True(t, rec.OldValue.Equal(history.FieldValue(original, rec.Field)), rec.Field)
		assert.True(t, rec.NewValue.Equal(history.FieldValue(stored, rec.Field)), rec.Field)
		assert.Equal(t, records[0].CreatedAt, rec.CreatedAt)
	}

	// Fields outside the change set are untouched
	assert.Equal(t, original.Status, stored.Status)
	assert.Equal(t, original.Description, stored.Description)
	assert.Equal(t, original.BoardID, stored.BoardID)
	assert.Equal(t, original.ProjectID, stored.ProjectID)
	assert.Equal(t, original.CreatedAt, stored.CreatedAt)
	assert.Equal(t, "Renamed", stored.Title)
}

func TestUpdateTaskUseCase_NoValidChanges(t *testing.T) {
	tests := []struct {
		name  string
		patch task.Patch
	}{
		{"empty patch", task.Patch{}},
		{"unchanged values", task.Patch{Title: task.Some("A"), Status: task.Some("todo"), Priority: task.Some("medium")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			original := f.seedTask(t)
			uc := f.updateUseCase()

			_, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
				TaskID: original.ID.String(),
				Patch:  tt.patch,
			})

			require.ErrorIs(t, err, taskapp.ErrNoValidChanges)
			require.ErrorIs(t, err, errs.ErrNoChanges)
			assert.Equal(t, 0, f.tasks.CallCount("Update"))
			assert.Equal(t, 0, f.history.InsertCallCount())
			assert.Equal(t, original.UpdatedAt, f.tasks.Stored(original.ID).UpdatedAt)
			assert.Equal(t, 0, f.bus.Count())
			assert.Equal(t, 1, f.metrics.outcomes[taskapp.OutcomeNoChanges])
		})
	}
}

func TestUpdateTaskUseCase_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	uc := f.updateUseCase()

	_, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  task.Patch{Title: task.Some("B"), Status: task.Some("blocked")},
	})

	require.ErrorIs(t, err, errs.ErrInvalidEnum)
	assert.Equal(t, 0, f.tasks.CallCount("Update"))
	assert.Empty(t, f.history.Records())
	assert.Equal(t, "A", f.tasks.Stored(original.ID).Title)
	assert.Equal(t, 1, f.metrics.outcomes[taskapp.OutcomeRejected])
}

func TestUpdateTaskUseCase_MissingAssigneeIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	uc := f.updateUseCase()

	cmd := testutil.NewPatch().
		Title("Valid title").
		Priority("low").
		Assignee(id.New().String()).
		UpdateCommand(original.ID, id.New())
	_, err := uc.Execute(context.Background(), cmd)

	require.ErrorIs(t, err, taskapp.ErrAssigneeNotFound)
	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, 0, f.tasks.CallCount("Update"))
	assert.Empty(t, f.history.Records())

	stored := f.tasks.Stored(original.ID)
	assert.Equal(t, "A", stored.Title)
	assert.Equal(t, task.PriorityMedium, stored.Priority)
}

func TestUpdateTaskUseCase_UppercaseAssigneeMatchesStoredID(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	alice := f.seedUser(t, "alice")
	uc := f.updateUseCase()
	patch := task.Patch{Assignee: task.Some(strings.ToUpper(alice.ID().String()))}

	result, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  patch,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Task.Assignee)
	assert.Equal(t, alice.ID(), *result.Task.Assignee)
	records := f.history.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].NewValue.Equal(history.Ref(alice.ID())))

	_, err = uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: strings.ToUpper(original.ID.String()),
		Patch:  patch,
	})

	require.ErrorIs(t, err, taskapp.ErrNoValidChanges)
	assert.Len(t, f.history.Records(), 1)
	assert.Equal(t, 1, f.tasks.CallCount("Update"))
}

func TestUpdateTaskUseCase_TaskLookup(t *testing.T) {
	f := newFixture(t)
	uc := f.updateUseCase()
	patch := task.Patch{Title: task.Some("B")}

	_, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{TaskID: "not-an-id", Patch: patch})
	require.ErrorIs(t, err, taskapp.ErrInvalidTaskID)
	require.ErrorIs(t, err, errs.ErrInvalidReference)

	_, err = uc.Execute(context.Background(), taskapp.UpdateTaskCommand{TaskID: id.New().String(), Patch: patch})
	require.ErrorIs(t, err, taskapp.ErrTaskNotFound)

	storeErr := errors.New("connection reset")
	f.tasks.SetFailureNext("FindByID", storeErr)
	original := f.seedTask(t)
	_, err = uc.Execute(context.Background(), taskapp.UpdateTaskCommand{TaskID: original.ID.String(), Patch: patch})
	require.ErrorIs(t, err, storeErr)
	assert.Equal(t, 1, f.metrics.outcomes[taskapp.OutcomeError])
}

func TestUpdateTaskUseCase_AuditWriteFailureKeepsTaskWrite(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	f.history.SetFailureNext(errors.New("history collection unavailable"))
	uc := f.updateUseCase()

	result, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  task.Patch{Status: task.Some("done")},
	})

	require.NoError(t, err)
	assert.False(t, result.AuditRecorded)
	assert.Empty(t, result.Records)
	assert.Equal(t, task.StatusDone, f.tasks.Stored(original.ID).Status)
	assert.Empty(t, f.history.Records())
	assert.Equal(t, 1, f.metrics.auditFailures)
	assert.Empty(t, f.metrics.changed)
	assert.Equal(t, 1, f.bus.Count())
}

func TestUpdateTaskUseCase_AnonymousActor(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	uc := f.updateUseCase()

	_, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  task.Patch{Priority: task.Some("low")},
	})

	require.NoError(t, err)
	records := f.history.Records()
	require.Len(t, records, 1)
	assert.Nil(t, records[0].UserID)
}

func TestUpdateTaskUseCase_UpdatedAtStrictlyIncreases(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	// Clock behind the stored timestamp
	frozen := original.UpdatedAt.Add(-time.Minute)
	uc := f.updateUseCase(taskapp.WithClock(func() time.Time { return frozen }))

	first, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  task.Patch{Title: task.Some("B")},
	})
	require.NoError(t, err)
	assert.Equal(t, original.UpdatedAt.Add(time.Millisecond), first.Task.UpdatedAt)

	second, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  task.Patch{Title: task.Some("C")},
	})
	require.NoError(t, err)
	assert.True(t, second.Task.UpdatedAt.After(first.Task.UpdatedAt))

	for _, rec := range f.history.Records() {
		assert.False(t, rec.CreatedAt.Before(original.UpdatedAt.Add(time.Millisecond)))
	}
}

func TestUpdateTaskUseCase_ConditionalWrite(t *testing.T) {
	t.Run("precondition is the loaded updatedAt", func(t *testing.T) {
		f := newFixture(t)
		original := f.seedTask(t)
		uc := f.updateUseCase(taskapp.WithConditionalWrite(true))

		_, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
			TaskID: original.ID.String(),
			Patch:  task.Patch{Status: task.Some("done")},
		})

		require.NoError(t, err)
		updates := f.tasks.Updates()
		require.Len(t, updates, 1)
		assert.Equal(t, original.UpdatedAt, updates[0].Precondition)
	})

	t.Run("lost race writes no history", func(t *testing.T) {
		f := newFixture(t)
		original := f.seedTask(t)
		f.tasks.SetFailureNext("Update", errs.ErrConcurrentModification)
		uc := f.updateUseCase(taskapp.WithConditionalWrite(true))

		_, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
			TaskID: original.ID.String(),
			Patch:  task.Patch{Status: task.Some("done")},
		})

		require.ErrorIs(t, err, taskapp.ErrConcurrentUpdate)
		assert.Empty(t, f.history.Records())
		assert.Equal(t, 1, f.metrics.outcomes[taskapp.OutcomeConflict])
	})
}

func TestUpdateTaskUseCase_TaskWriteFailure(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	storeErr := errors.New("write concern timeout")
	f.tasks.SetFailureNext("Update", storeErr)
	uc := f.updateUseCase()

	_, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  task.Patch{Status: task.Some("done")},
	})

	require.ErrorIs(t, err, storeErr)
	assert.Equal(t, 0, f.history.InsertCallCount())
	assert.Equal(t, 0, f.bus.Count())
}

func TestUpdateTaskUseCase_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	actor := id.New()
	uc := f.updateUseCase()
	ctx := appcore.WithCorrelationID(context.Background(), "req-1")

	_, err := uc.Execute(ctx, taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  task.Patch{Status: task.Some("done")},
		Actor:  actor,
	})
	require.NoError(t, err)

	events := f.bus.OfType(task.EventTypeTaskUpdated)
	require.Len(t, events, 1)
	evt, ok := events[0].(*task.Updated)
	require.True(t, ok)
	assert.Equal(t, original.ID.String(), evt.AggregateID())
	assert.Equal(t, original.BoardID.String(), evt.ScopeID())
	assert.Equal(t, actor.String(), evt.Metadata().UserID)
	assert.Equal(t, "req-1", evt.Metadata().CorrelationID)
	require.Len(t, evt.Changes, 1)
	assert.Equal(t, "todo", evt.Changes[0].OldValue)
	assert.Equal(t, "done", evt.Changes[0].NewValue)
}

func TestUpdateTaskUseCase_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	f.bus.FailNext(errors.New("redis down"))
	uc := f.updateUseCase()

	result, err := uc.Execute(context.Background(), taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  task.Patch{Status: task.Some("done")},
	})

	require.NoError(t, err)
	assert.True(t, result.AuditRecorded)
}

func TestUpdateTaskUseCase_IgnoresCancellationAfterValidation(t *testing.T) {
	f := newFixture(t)
	original := f.seedTask(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uc := f.updateUseCase()

	_, err := uc.Execute(ctx, taskapp.UpdateTaskCommand{
		TaskID: original.ID.String(),
		Patch:  task.Patch{Title: task.Some("B")},
	})

	require.NoError(t, err)
	assert.Equal(t, "B", f.tasks.Stored(original.ID).Title)
	assert.Len(t, f.history.Records(), 1)
}
