package httphandler

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/project"
	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/taskboard/internal/middleware"
)

// CreateProjectRequest represents the request to create a project.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Description string `json:"description"`
}

// UpdateProjectRequest represents a partial project update. Nil fields are kept.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Archived    *bool   `json:"archived"`
}

// ProjectService defines the interface for project operations.
// Declared on the consumer side per project guidelines.
type ProjectService interface {
	CreateProject(ctx context.Context, ownerID id.ID, name, key, description string) (*project.Project, error)
	ListProjects(ctx context.Context, includeArchived bool) ([]*project.Project, error)
	GetProject(ctx context.Context, projectID string) (*project.Project, error)
	UpdateProject(ctx context.Context, projectID string, req UpdateProjectRequest) (*project.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
}

// ProjectHandler handles project HTTP requests.
type ProjectHandler struct {
	projectService ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// RegisterRoutes registers project routes with the router.
func (h *ProjectHandler) RegisterRoutes(r *httpserver.Router) {
	r.Auth().POST("/projects", h.Create)
	r.Auth().GET("/projects", h.List)
	r.Auth().GET("/projects/:projectId", h.Get)
	r.Auth().PATCH("/projects/:projectId", h.Update)
	r.Auth().DELETE("/projects/:projectId", h.Delete)
}

// Create handles POST /api/v1/projects.
func (h *ProjectHandler) Create(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	p, err := h.projectService.CreateProject(
		c.Request().Context(), middleware.GetUserID(c), req.Name, req.Key, req.Description)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, p)
}

// List handles GET /api/v1/projects?archived=true.
func (h *ProjectHandler) List(c echo.Context) error {
	includeArchived, _ := strconv.ParseBool(c.QueryParam("archived"))

	projects, err := h.projectService.ListProjects(c.Request().Context(), includeArchived)
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	if projects == nil {
		projects = []*project.Project{}
	}

	return httpserver.RespondOK(c, projects)
}

// Get handles GET /api/v1/projects/:projectId.
func (h *ProjectHandler) Get(c echo.Context) error {
	p, err := h.projectService.GetProject(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, p)
}

// Update handles PATCH /api/v1/projects/:projectId.
func (h *ProjectHandler) Update(c echo.Context) error {
	var req UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	p, err := h.projectService.UpdateProject(c.Request().Context(), c.Param("projectId"), req)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, p)
}

// Delete handles DELETE /api/v1/projects/:projectId.
func (h *ProjectHandler) Delete(c echo.Context) error {
	if err := h.projectService.DeleteProject(c.Request().Context(), c.Param("projectId")); err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondNoContent(c)
}
