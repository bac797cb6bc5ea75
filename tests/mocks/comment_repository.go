package mocks

import (
	"context"

	"github.com/lllypuk/taskboard/internal/domain/comment"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// MockCommentRepository is an in-memory comment store.
type MockCommentRepository struct {
	store *memStore[comment.Comment]
}

// NewMockCommentRepository creates a new mock comment repository.
func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{store: newMemStore[comment.Comment]()}
}

// Create stores a comment.
func (r *MockCommentRepository) Create(_ context.Context, c *comment.Comment) error {
	return r.store.create(c.ID, *c)
}

// FindByID находит комментарий по ID
func (r *MockCommentRepository) FindByID(_ context.Context, commentID id.ID) (*comment.Comment, error) {
	c, err := r.store.get(commentID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByTask returns the task comments oldest first.
func (r *MockCommentRepository) FindByTask(_ context.Context, taskID id.ID) ([]*comment.Comment, error) {
	items, err := r.store.filter(func(c comment.Comment) bool { return c.TaskID == taskID })
	if err != nil {
		return nil, err
	}
	result := make([]*comment.Comment, 0, len(items))
	for i := range items {
		result = append(result, &items[i])
	}
	return result, nil
}

// Update replaces a comment.
func (r *MockCommentRepository) Update(_ context.Context, c *comment.Comment) error {
	return r.store.put(c.ID, *c)
}

// Delete removes a comment.
func (r *MockCommentRepository) Delete(_ context.Context, commentID id.ID) error {
	return r.store.remove(commentID)
}

// DeleteByTask removes all comments of a task.
func (r *MockCommentRepository) DeleteByTask(_ context.Context, taskID id.ID) (int64, error) {
	return r.store.removeWhere(func(c comment.Comment) bool { return c.TaskID == taskID }), nil
}
