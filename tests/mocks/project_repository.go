package mocks

import (
	"context"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/project"
)

// MockProjectRepository is an in-memory project store.
type MockProjectRepository struct {
	store *memStore[project.Project]
}

// NewMockProjectRepository creates a new mock project repository.
func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{store: newMemStore[project.Project]()}
}

// AddProject seeds the repository.
func (r *MockProjectRepository) AddProject(p *project.Project) {
	_ = r.store.create(p.ID, *p)
}

// Create stores a project, rejecting duplicate keys.
func (r *MockProjectRepository) Create(_ context.Context, p *project.Project) error {
	dup, err := r.store.filter(func(existing project.Project) bool { return existing.Key == p.Key })
	if err != nil {
		return err
	}
	if len(dup) > 0 {
		return errs.ErrAlreadyExists
	}
	return r.store.create(p.ID, *p)
}

// FindByID находит проект по ID
func (r *MockProjectRepository) FindByID(_ context.Context, projectID id.ID) (*project.Project, error) {
	p, err := r.store.get(projectID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns projects in insertion order.
func (r *MockProjectRepository) List(_ context.Context, includeArchived bool) ([]*project.Project, error) {
	items, err := r.store.filter(func(p project.Project) bool { return includeArchived || !p.Archived })
	if err != nil {
		return nil, err
	}
	result := make([]*project.Project, 0, len(items))
	for i := range items {
		result = append(result, &items[i])
	}
	return result, nil
}

// Update replaces a project.
func (r *MockProjectRepository) Update(_ context.Context, p *project.Project) error {
	return r.store.put(p.ID, *p)
}

// Delete removes a project.
func (r *MockProjectRepository) Delete(_ context.Context, projectID id.ID) error {
	return r.store.remove(projectID)
}

// SetFailureNext sets an error to be returned on the next call.
func (r *MockProjectRepository) SetFailureNext(err error) {
	r.store.setFailureNext(err)
}
