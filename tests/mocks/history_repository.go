package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// MockHistoryRepository implements taskapp.HistoryRepository for testing.
type MockHistoryRepository struct {
	mu       sync.RWMutex
	records  []history.ChangeRecord
	calls    int
	failNext error
}

// NewMockHistoryRepository creates a new mock history repository.
func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{}
}

// InsertMany appends records atomically.
func (r *MockHistoryRepository) InsertMany(_ context.Context, records []history.ChangeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}

	r.records = append(r.records, records...)
	return nil
}

// FindByTask returns the task records oldest first.
func (r *MockHistoryRepository) FindByTask(_ context.Context, taskID id.ID, limit int) ([]history.ChangeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]history.ChangeRecord, 0)
	for _, rec := range r.records {
		if rec.TaskID == taskID {
			result = append(result, rec)
		}
	}
	slices.SortStableFunc(result, func(a, b history.ChangeRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Records returns every stored record.
func (r *MockHistoryRepository) Records() []history.ChangeRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records)
}

// InsertCallCount returns the number of InsertMany calls.
func (r *MockHistoryRepository) InsertCallCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calls
}

// SetFailureNext sets an error to be returned on the next InsertMany call.
func (r *MockHistoryRepository) SetFailureNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = err
}
