package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
	taskdomain "github.com/lllypuk/taskboard/internal/domain/task"
	"github.com/lllypuk/taskboard/internal/domain/user"
)

// UserResolver resolves an assignee candidate.
type UserResolver interface {
	ResolveUser(ctx context.Context, raw string) (*user.User, error)
}

// Change is one field transition.
type Change struct {
	Field    taskdomain.Field
	OldValue history.Value
	NewValue history.Value
}

// Diff is the result of comparing a patch with the persisted task.
type Diff struct {
	// Updated is a copy of the task with the changed fields applied.
	Updated *taskdomain.Task

	// Changes are ordered by taskdomain.MutableFields.
	Changes []Change
}

// IsEmpty reports whether the patch changes nothing.
func (d Diff) IsEmpty() bool {
	return len(d.Changes) == 0
}

// Fields returns the changed fields in order.
func (d Diff) Fields() []taskdomain.Field {
	fields := make([]taskdomain.Field, 0, len(d.Changes))
	for _, c := range d.Changes {
		fields = append(fields, c.Field)
	}
	return fields
}

// DiffEngine computes the minimal set of field changes of a partial update.
type DiffEngine struct {
	users UserResolver
}

// NewDiffEngine creates a DiffEngine.
func NewDiffEngine(users UserResolver) *DiffEngine {
	return &DiffEngine{users: users}
}

// Compute validates every present field in evaluation order and stops at the
// first violation. The current task is not modified.
func (e *DiffEngine) Compute(ctx context.Context, current *taskdomain.Task, patch taskdomain.Patch) (Diff, error) {
	diff := Diff{Updated: current.Clone()}

	for _, field := range patch.Fields() {
		proposed, err := e.normalize(ctx, field, patch)
		if err != nil {
			return Diff{}, err
		}

		old := history.FieldValue(current, field)
		if old.Equal(proposed) {
			continue
		}

		applyValue(diff.Updated, field, proposed)
		diff.Changes = append(diff.Changes, Change{
			Field:    field,
			OldValue: old,
			NewValue: proposed,
		})
	}

	return diff, nil
}

func (e *DiffEngine) normalize(ctx context.Context, field taskdomain.Field, patch taskdomain.Patch) (history.Value, error) {
	switch field {
	case taskdomain.FieldTitle:
		title := strings.TrimSpace(patch.Title.Value)
		if patch.Title.Null || title == "" {
			return history.Value{}, ErrEmptyTitle
		}
		return history.Text(title), nil

	case taskdomain.FieldDescription:
		if patch.Description.Null {
			return history.Text(""), nil
		}
		return history.Text(patch.Description.Value), nil

	case taskdomain.FieldStatus:
		if patch.Status.Null {
			return history.Value{}, ErrInvalidStatus
		}
		s, err := taskdomain.ParseStatus(patch.Status.Value)
		if err != nil {
			return history.Value{}, ErrInvalidStatus
		}
		return history.Enum(string(s)), nil

	case taskdomain.FieldPriority:
		if patch.Priority.Null {
			return history.Value{}, ErrInvalidPriority
		}
		p, err := taskdomain.ParsePriority(patch.Priority.Value)
		if err != nil {
			return history.Value{}, ErrInvalidPriority
		}
		return history.Enum(string(p)), nil

	case taskdomain.FieldAssignee:
		raw := strings.TrimSpace(patch.Assignee.Value)
		if patch.Assignee.Null || raw == "" {
			return history.Null(), nil
		}
		assignee, err := e.resolveAssignee(ctx, raw)
		if err != nil {
			return history.Value{}, err
		}
		return history.Ref(assignee), nil

	case taskdomain.FieldDueDate:
		if patch.DueDate.Null {
			return history.Null(), nil
		}
		return history.Date(&patch.DueDate.Value), nil
	}

	return history.Value{}, fmt.Errorf("%w: unknown field %q", errs.ErrInvalidInput, field)
}

func (e *DiffEngine) resolveAssignee(ctx context.Context, raw string) (id.ID, error) {
	u, err := e.users.ResolveUser(ctx, raw)
	switch {
	case err == nil:
		return u.ID(), nil
	case errors.Is(err, errs.ErrInvalidReference):
		return "", ErrInvalidAssignee
	case errors.Is(err, errs.ErrNotFound):
		return "", ErrAssigneeNotFound
	default:
		return "", fmt.Errorf("failed to resolve assignee: %w", err)
	}
}

// applyValue is the inverse of history.FieldValue.
func applyValue(t *taskdomain.Task, field taskdomain.Field, v history.Value) {
	switch field {
	case taskdomain.FieldTitle:
		t.Title = v.String()
	case taskdomain.FieldDescription:
		t.Description = v.String()
	case taskdomain.FieldStatus:
		t.Status = taskdomain.Status(v.String())
	case taskdomain.FieldPriority:
		t.Priority = taskdomain.Priority(v.String())
	case taskdomain.FieldAssignee:
		t.Assignee = id.ID(v.String()).Ptr()
	case taskdomain.FieldDueDate:
		if due, ok := v.Time(); ok {
			t.DueDate = &due
		} else {
			t.DueDate = nil
		}
	}
}
