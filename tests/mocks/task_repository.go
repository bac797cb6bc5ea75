package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
)

// MockTaskRepository implements taskapp.Repository for testing.
type MockTaskRepository struct {
	mu       sync.RWMutex
	tasks    map[id.ID]*task.Task
	order    []id.ID
	calls    map[string]int
	failNext map[string]error
	updates  []TaskUpdate
}

// TaskUpdate records the arguments of one Update call.
type TaskUpdate struct {
	TaskID       id.ID
	Fields       []task.Field
	Precondition time.Time
}

// NewMockTaskRepository creates a new mock task repository.
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{
		tasks:    make(map[id.ID]*task.Task),
		calls:    make(map[string]int),
		failNext: make(map[string]error),
	}
}

// AddTask seeds the repository.
func (r *MockTaskRepository) AddTask(t *task.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		r.order = append(r.order, t.ID)
	}
	r.tasks[t.ID] = t.Clone()
}

// FindByID returns a copy of the stored task.
func (r *MockTaskRepository) FindByID(_ context.Context, taskID id.ID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls["FindByID"]++
	if err := r.takeFailure("FindByID"); err != nil {
		return nil, err
	}

	t, ok := r.tasks[taskID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return t.Clone(), nil
}

// FindByBoard returns the board tasks in insertion order.
func (r *MockTaskRepository) FindByBoard(_ context.Context, boardID id.ID) ([]*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls["FindByBoard"]++
	if err := r.takeFailure("FindByBoard"); err != nil {
		return nil, err
	}

	result := make([]*task.Task, 0)
	for _, taskID := range r.order {
		if t, ok := r.tasks[taskID]; ok && t.BoardID == boardID {
			result = append(result, t.Clone())
		}
	}
	return result, nil
}

// Create stores a new task.
func (r *MockTaskRepository) Create(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls["Create"]++
	if err := r.takeFailure("Create"); err != nil {
		return err
	}

	if _, ok := r.tasks[t.ID]; ok {
		return errs.ErrAlreadyExists
	}
	r.order = append(r.order, t.ID)
	r.tasks[t.ID] = t.Clone()
	return nil
}

// Update replaces the stored task, honouring the precondition.
func (r *MockTaskRepository) Update(
	_ context.Context,
	t *task.Task,
	fields []task.Field,
	precondition time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls["Update"]++
	r.updates = append(r.updates, TaskUpdate{TaskID: t.ID, Fields: slices.Clone(fields), Precondition: precondition})
	if err := r.takeFailure("Update"); err != nil {
		return err
	}

	stored, ok := r.tasks[t.ID]
	if !ok {
		return errs.ErrNotFound
	}
	if !precondition.IsZero() && !stored.UpdatedAt.Equal(precondition) {
		return errs.ErrConcurrentModification
	}
	r.tasks[t.ID] = t.Clone()
	return nil
}

// Delete removes a task.
func (r *MockTaskRepository) Delete(_ context.Context, taskID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls["Delete"]++
	if err := r.takeFailure("Delete"); err != nil {
		return err
	}

	if _, ok := r.tasks[taskID]; !ok {
		return errs.ErrNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

// Stored returns the persisted copy, or nil.
func (r *MockTaskRepository) Stored(taskID id.ID) *task.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tasks[taskID]; ok {
		return t.Clone()
	}
	return nil
}

// Updates returns the recorded Update calls.
func (r *MockTaskRepository) Updates() []TaskUpdate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.updates)
}

// SetFailureNext sets an error to be returned on the next call of method.
func (r *MockTaskRepository) SetFailureNext(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext[method] = err
}

// CallCount returns how many times method was called.
func (r *MockTaskRepository) CallCount(method string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calls[method]
}

func (r *MockTaskRepository) takeFailure(method string) error {
	err := r.failNext[method]
	delete(r.failNext, method)
	return err
}
