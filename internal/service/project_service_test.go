package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/application/reference"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	httphandler "github.com/lllypuk/taskboard/internal/handler/http"
	"github.com/lllypuk/taskboard/internal/service"
	"github.com/lllypuk/taskboard/tests/mocks"
)

func newProjectService() (*service.ProjectService, *mocks.MockProjectRepository) {
	projects := mocks.NewMockProjectRepository()
	resolver := reference.NewResolver(mocks.NewMockUserRepository(), mocks.NewMockBoardRepository(), projects)
	return service.NewProjectService(projects, resolver, nil), projects
}

func strPtr(s string) *string { return &s }

func TestProjectService_CreateProject(t *testing.T) {
	ctx := context.Background()
	ownerID := id.New()

	t.Run("normalizes key", func(t *testing.T) {
		svc, projects := newProjectService()

		p, err := svc.CreateProject(ctx, ownerID, " Platform ", "plat", "core services")
		require.NoError(t, err)
		assert.Equal(t, "Platform", p.Name)
		assert.Equal(t, "PLAT", p.Key)
		assert.Equal(t, ownerID, p.OwnerID)

		stored, err := projects.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "PLAT", stored.Key)
	})

	t.Run("invalid input", func(t *testing.T) {
		svc, _ := newProjectService()

		_, err := svc.CreateProject(ctx, ownerID, "", "PLAT", "")
		require.ErrorIs(t, err, service.ErrInvalidProject)

		_, err = svc.CreateProject(ctx, ownerID, "Platform", "1X", "")
		require.ErrorIs(t, err, service.ErrInvalidProject)
	})

	t.Run("duplicate key", func(t *testing.T) {
		svc, _ := newProjectService()

		_, err := svc.CreateProject(ctx, ownerID, "Platform", "PLAT", "")
		require.NoError(t, err)

		_, err = svc.CreateProject(ctx, ownerID, "Other", "plat", "")
		require.ErrorIs(t, err, service.ErrProjectKeyExists)
		require.ErrorIs(t, err, errs.ErrAlreadyExists)
	})

	t.Run("repository failure", func(t *testing.T) {
		svc, projects := newProjectService()
		projects.SetFailureNext(errors.New("mongo down"))

		_, err := svc.CreateProject(ctx, ownerID, "Platform", "PLAT", "")
		require.Error(t, err)
		assert.NotErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestProjectService_ListProjects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProjectService()

	active, err := svc.CreateProject(ctx, id.New(), "Active", "ACT", "")
	require.NoError(t, err)
	archived, err := svc.CreateProject(ctx, id.New(), "Old", "OLD", "")
	require.NoError(t, err)

	archivedFlag := true
	_, err = svc.UpdateProject(ctx, archived.ID.String(), httphandler.UpdateProjectRequest{Archived: &archivedFlag})
	require.NoError(t, err)

	list, err := svc.ListProjects(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	list, err = svc.ListProjects(ctx, true)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestProjectService_GetProject(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProjectService()

	created, err := svc.CreateProject(ctx, id.New(), "Platform", "PLAT", "")
	require.NoError(t, err)

	got, err := svc.GetProject(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.Key, got.Key)

	_, err = svc.GetProject(ctx, "not-an-id")
	require.ErrorIs(t, err, reference.ErrInvalidProjectID)

	_, err = svc.GetProject(ctx, id.New().String())
	require.ErrorIs(t, err, reference.ErrProjectNotFound)
}

func TestProjectService_UpdateProject(t *testing.T) {
	ctx := context.Background()
	svc, projects := newProjectService()

	created, err := svc.CreateProject(ctx, id.New(), "Platform", "PLAT", "")
	require.NoError(t, err)

	updated, err := svc.UpdateProject(ctx, created.ID.String(), httphandler.UpdateProjectRequest{
		Name:        strPtr("Platform Team"),
		Description: strPtr("owns the API"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Platform Team", updated.Name)
	assert.Equal(t, "owns the API", updated.Description)
	assert.Equal(t, "PLAT", updated.Key)

	stored, err := projects.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Platform Team", stored.Name)

	_, err = svc.UpdateProject(ctx, created.ID.String(), httphandler.UpdateProjectRequest{Name: strPtr("  ")})
	require.ErrorIs(t, err, service.ErrInvalidProject)
}

func TestProjectService_DeleteProject(t *testing.T) {
	ctx := context.Background()
	svc, projects := newProjectService()

	created, err := svc.CreateProject(ctx, id.New(), "Platform", "PLAT", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProject(ctx, created.ID.String()))

	_, err = projects.FindByID(ctx, created.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	err = svc.DeleteProject(ctx, created.ID.String())
	require.ErrorIs(t, err, reference.ErrProjectNotFound)
}
