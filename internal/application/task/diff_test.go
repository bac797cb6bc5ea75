package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
)

func TestDiffEngine_Compute_FieldOrder(t *testing.T) {
	f := newFixture(t)
	current := f.seedTask(t)
	due := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	engine := taskapp.NewDiffEngine(f.resolver)

	diff, err := engine.Compute(context.Background(), current, task.Patch{
		DueDate:  task.Some(due),
		Priority: task.Some("high"),
		Title:    task.Some("B"),
	})

	require.NoError(t, err)
	assert.Equal(t, []task.Field{task.FieldTitle, task.FieldPriority, task.FieldDueDate}, diff.Fields())
	assert.Equal(t, "B", diff.Updated.Title)
	assert.Equal(t, task.PriorityHigh, diff.Updated.Priority)
	require.NotNil(t, diff.Updated.DueDate)
	assert.True(t, due.Equal(*diff.Updated.DueDate))

	// The input is left untouched
	assert.Equal(t, "A", current.Title)
	assert.Nil(t, current.DueDate)
}

func TestDiffEngine_Compute_NoOps(t *testing.T) {
	f := newFixture(t)
	current := f.seedTask(t)
	due := time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC)
	current.DueDate = &due
	current.Description = "text"
	engine := taskapp.NewDiffEngine(f.resolver)

	tests := []struct {
		name  string
		patch task.Patch
	}{
		{"empty patch", task.Patch{}},
		{"same title", task.Patch{Title: task.Some("A")}},
		{"same title after trim", task.Patch{Title: task.Some("  A  ")}},
		{"same description", task.Patch{Description: task.Some("text")}},
		{"same status", task.Patch{Status: task.Some("todo")}},
		{"same priority", task.Patch{Priority: task.Some("medium")}},
		{"null assignee when unassigned", task.Patch{Assignee: task.Null[string]()}},
		{"empty assignee when unassigned", task.Patch{Assignee: task.Some("")}},
		{"same due date in another zone", task.Patch{DueDate: task.Some(due.In(time.FixedZone("UTC+5", 5*3600)))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff, err := engine.Compute(context.Background(), current, tt.patch)

			require.NoError(t, err)
			assert.True(t, diff.IsEmpty())
		})
	}
}

func TestDiffEngine_Compute_Validation(t *testing.T) {
	f := newFixture(t)
	current := f.seedTask(t)
	engine := taskapp.NewDiffEngine(f.resolver)

	tests := []struct {
		name    string
		patch   task.Patch
		wantErr error
		kind    error
	}{
		{"blank title", task.Patch{Title: task.Some("   ")}, taskapp.ErrEmptyTitle, errs.ErrInvalidInput},
		{"null title", task.Patch{Title: task.Null[string]()}, taskapp.ErrEmptyTitle, errs.ErrInvalidInput},
		{"unknown status", task.Patch{Status: task.Some("closed")}, taskapp.ErrInvalidStatus, errs.ErrInvalidEnum},
		{"null status", task.Patch{Status: task.Null[string]()}, taskapp.ErrInvalidStatus, errs.ErrInvalidEnum},
		{"unknown priority", task.Patch{Priority: task.Some("urgent")}, taskapp.ErrInvalidPriority, errs.ErrInvalidEnum},
		{"malformed assignee", task.Patch{Assignee: task.Some("bob")}, taskapp.ErrInvalidAssignee, errs.ErrInvalidReference},
		{"missing assignee", task.Patch{Assignee: task.Some(id.New().String())}, taskapp.ErrAssigneeNotFound, errs.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Compute(context.Background(), current, tt.patch)

			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestDiffEngine_Compute_StopsAtFirstViolation(t *testing.T) {
	f := newFixture(t)
	current := f.seedTask(t)
	engine := taskapp.NewDiffEngine(f.resolver)

	_, err := engine.Compute(context.Background(), current, task.Patch{
		Title:    task.Some(""),
		Status:   task.Some("bogus"),
		Assignee: task.Some(id.New().String()),
	})
	require.ErrorIs(t, err, taskapp.ErrEmptyTitle)

	_, err = engine.Compute(context.Background(), current, task.Patch{
		Status:   task.Some("bogus"),
		Assignee: task.Some(id.New().String()),
	})
	require.ErrorIs(t, err, taskapp.ErrInvalidStatus)

	// Assignee lookup comes after status, so it never ran
	assert.Equal(t, 0, f.users.CallCount("FindByID"))
}

func TestDiffEngine_Compute_Assignee(t *testing.T) {
	f := newFixture(t)
	current := f.seedTask(t)
	alice := f.seedUser(t, "alice")
	engine := taskapp.NewDiffEngine(f.resolver)

	diff, err := engine.Compute(context.Background(), current, task.Patch{Assignee: task.Some(alice.ID().String())})
	require.NoError(t, err)
	require.Len(t, diff.Changes, 1)
	assert.True(t, diff.Changes[0].OldValue.IsNull())
	assert.True(t, diff.Changes[0].NewValue.Equal(history.Ref(alice.ID())))
	assert.Equal(t, alice.ID(), diff.Updated.AssigneeID())

	// Clearing an assigned task
	current.Assignee = alice.ID().Ptr()
	diff, err = engine.Compute(context.Background(), current, task.Patch{Assignee: task.Null[string]()})
	require.NoError(t, err)
	require.Len(t, diff.Changes, 1)
	assert.Equal(t, history.KindRef, diff.Changes[0].OldValue.Kind())
	assert.True(t, diff.Changes[0].NewValue.IsNull())
	assert.Nil(t, diff.Updated.Assignee)
}

func TestDiffEngine_Compute_DescriptionNullClears(t *testing.T) {
	f := newFixture(t)
	current := f.seedTask(t)
	current.Description = "old"
	engine := taskapp.NewDiffEngine(f.resolver)

	diff, err := engine.Compute(context.Background(), current, task.Patch{Description: task.Null[string]()})

	require.NoError(t, err)
	require.Len(t, diff.Changes, 1)
	assert.True(t, diff.Changes[0].NewValue.Equal(history.Text("")))
	assert.Empty(t, diff.Updated.Description)
}

func TestDiffEngine_Compute_DescriptionKeepsWhitespace(t *testing.T) {
	f := newFixture(t)
	current := f.seedTask(t)
	engine := taskapp.NewDiffEngine(f.resolver)

	diff, err := engine.Compute(context.Background(), current, task.Patch{Description: task.Some("  spaced  ")})

	require.NoError(t, err)
	assert.Equal(t, "  spaced  ", diff.Updated.Description)
}
