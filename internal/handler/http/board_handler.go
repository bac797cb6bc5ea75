package httphandler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
)

// CreateBoardRequest represents the request to create a board.
type CreateBoardRequest struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Type      string `json:"type"`
}

// UpdateBoardRequest represents a partial board update. Nil fields are kept.
type UpdateBoardRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

// BoardService defines the interface for board operations.
// Declared on the consumer side per project guidelines.
type BoardService interface {
	CreateBoard(ctx context.Context, projectID, name, boardType string) (*board.Board, error)
	ListProjectBoards(ctx context.Context, projectID string) ([]*board.Board, error)
	GetBoard(ctx context.Context, boardID string) (*board.Board, error)
	UpdateBoard(ctx context.Context, boardID string, req UpdateBoardRequest) (*board.Board, error)
	DeleteBoard(ctx context.Context, boardID string) error
}

// BoardHandler handles board HTTP requests.
type BoardHandler struct {
	boardService BoardService
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(boardService BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

// RegisterRoutes registers board routes with the router.
func (h *BoardHandler) RegisterRoutes(r *httpserver.Router) {
	r.Auth().POST("/boards", h.Create)
	r.Auth().GET("/projects/:projectId/boards", h.ListByProject)
	r.Auth().GET("/boards/:boardId", h.Get)
	r.Auth().PATCH("/boards/:boardId", h.Update)
	r.Auth().DELETE("/boards/:boardId", h.Delete)
}

// Create handles POST /api/v1/boards.
func (h *BoardHandler) Create(c echo.Context) error {
	var req CreateBoardRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	b, err := h.boardService.CreateBoard(c.Request().Context(), req.ProjectID, req.Name, req.Type)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, b)
}

// ListByProject handles GET /api/v1/projects/:projectId/boards.
func (h *BoardHandler) ListByProject(c echo.Context) error {
	boards, err := h.boardService.ListProjectBoards(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	if boards == nil {
		boards = []*board.Board{}
	}

	return httpserver.RespondOK(c, boards)
}

// Get handles GET /api/v1/boards/:boardId.
func (h *BoardHandler) Get(c echo.Context) error {
	b, err := h.boardService.GetBoard(c.Request().Context(), c.Param("boardId"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, b)
}

// Update handles PATCH /api/v1/boards/:boardId.
func (h *BoardHandler) Update(c echo.Context) error {
	var req UpdateBoardRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	b, err := h.boardService.UpdateBoard(c.Request().Context(), c.Param("boardId"), req)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, b)
}

// Delete handles DELETE /api/v1/boards/:boardId.
func (h *BoardHandler) Delete(c echo.Context) error {
	if err := h.boardService.DeleteBoard(c.Request().Context(), c.Param("boardId")); err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondNoContent(c)
}
