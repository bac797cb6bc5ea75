package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/project"
	httphandler "github.com/lllypuk/taskboard/internal/handler/http"
)

// Compile-time assertion that ProjectService implements httphandler.ProjectService.
var _ httphandler.ProjectService = (*ProjectService)(nil)

// ProjectRepository stores projects.
// Интерфейс объявлен на стороне потребителя.
type ProjectRepository interface {
	Create(ctx context.Context, p *project.Project) error
	FindByID(ctx context.Context, projectID id.ID) (*project.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*project.Project, error)
	Update(ctx context.Context, p *project.Project) error
	Delete(ctx context.Context, projectID id.ID) error
}

// ProjectResolver resolves a raw project id.
type ProjectResolver interface {
	ResolveProject(ctx context.Context, raw string) (*project.Project, error)
}

// ProjectService реализует httphandler.ProjectService
type ProjectService struct {
	projects ProjectRepository
	resolver ProjectResolver
	logger   *slog.Logger
}

// NewProjectService создаёт новый ProjectService.
func NewProjectService(projects ProjectRepository, resolver ProjectResolver, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{
		projects: projects,
		resolver: resolver,
		logger:   logger,
	}
}

// CreateProject создаёт проект. The key is upper-cased and must be unique.
func (s *ProjectService) CreateProject(
	ctx context.Context,
	ownerID id.ID,
	name, key, description string,
) (*project.Project, error) {
	p, err := project.NewProject(name, key, description, ownerID)
	if err != nil {
		return nil, ErrInvalidProject
	}

	if createErr := s.projects.Create(ctx, p); createErr != nil {
		if errors.Is(createErr, errs.ErrAlreadyExists) {
			return nil, ErrProjectKeyExists
		}
		return nil, fmt.Errorf("failed to create project: %w", createErr)
	}

	s.logger.InfoContext(ctx, "project created",
		slog.String("project_id", p.ID.String()),
		slog.String("key", p.Key),
	)
	return p, nil
}

// ListProjects возвращает проекты.
func (s *ProjectService) ListProjects(ctx context.Context, includeArchived bool) ([]*project.Project, error) {
	projects, err := s.projects.List(ctx, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject возвращает проект по ID.
func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*project.Project, error) {
	return s.resolver.ResolveProject(ctx, projectID)
}

// UpdateProject меняет имя, описание или флаг архивации.
func (s *ProjectService) UpdateProject(
	ctx context.Context,
	projectID string,
	req httphandler.UpdateProjectRequest,
) (*project.Project, error) {
	p, err := s.resolver.ResolveProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if renameErr := p.Rename(*req.Name); renameErr != nil {
			return nil, ErrInvalidProject
		}
	}
	if req.Description != nil {
		p.SetDescription(*req.Description)
	}
	if req.Archived != nil {
		p.SetArchived(*req.Archived)
	}

	if updateErr := s.projects.Update(ctx, p); updateErr != nil {
		return nil, fmt.Errorf("failed to update project: %w", updateErr)
	}
	return p, nil
}

// DeleteProject удаляет проект. Boards and tasks are left in place.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID string) error {
	p, err := s.resolver.ResolveProject(ctx, projectID)
	if err != nil {
		return err
	}

	if deleteErr := s.projects.Delete(ctx, p.ID); deleteErr != nil {
		return fmt.Errorf("failed to delete project: %w", deleteErr)
	}

	s.logger.InfoContext(ctx, "project deleted",
		slog.String("project_id", p.ID.String()),
	)
	return nil
}
