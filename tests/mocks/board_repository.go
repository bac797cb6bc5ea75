package mocks

import (
	"context"

	"github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

// MockBoardRepository is an in-memory board store.
type MockBoardRepository struct {
	store *memStore[board.Board]
}

// NewMockBoardRepository creates a new mock board repository.
func NewMockBoardRepository() *MockBoardRepository {
	return &MockBoardRepository{store: newMemStore[board.Board]()}
}

// AddBoard seeds the repository.
func (r *MockBoardRepository) AddBoard(b *board.Board) {
	_ = r.store.create(b.ID, *b)
}

// Create stores a board.
func (r *MockBoardRepository) Create(_ context.Context, b *board.Board) error {
	return r.store.create(b.ID, *b)
}

// FindByID находит доску по ID
func (r *MockBoardRepository) FindByID(_ context.Context, boardID id.ID) (*board.Board, error) {
	b, err := r.store.get(boardID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindByProject returns the project boards.
func (r *MockBoardRepository) FindByProject(_ context.Context, projectID id.ID) ([]*board.Board, error) {
	items, err := r.store.filter(func(b board.Board) bool { return b.ProjectID == projectID })
	if err != nil {
		return nil, err
	}
	result := make([]*board.Board, 0, len(items))
	for i := range items {
		result = append(result, &items[i])
	}
	return result, nil
}

// Update replaces a board.
func (r *MockBoardRepository) Update(_ context.Context, b *board.Board) error {
	return r.store.put(b.ID, *b)
}

// Delete removes a board.
func (r *MockBoardRepository) Delete(_ context.Context, boardID id.ID) error {
	return r.store.remove(boardID)
}

// SetFailureNext sets an error to be returned on the next call.
func (r *MockBoardRepository) SetFailureNext(err error) {
	r.store.setFailureNext(err)
}
