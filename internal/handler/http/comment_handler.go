package httphandler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/taskboard/internal/domain/comment"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/taskboard/internal/middleware"
)

// CreateCommentRequest represents the request to comment on a task.
type CreateCommentRequest struct {
	TaskID  string `json:"taskId"`
	Message string `json:"message"`
}

// UpdateCommentRequest represents the request to edit a comment.
type UpdateCommentRequest struct {
	Message string `json:"message"`
}

// CommentService defines the interface for comment operations.
// Declared on the consumer side per project guidelines.
type CommentService interface {
	CreateComment(ctx context.Context, authorID id.ID, taskID, message string) (*comment.Comment, error)
	ListTaskComments(ctx context.Context, taskID string) ([]*comment.Comment, error)
	UpdateComment(ctx context.Context, editorID id.ID, commentID, message string) (*comment.Comment, error)
	DeleteComment(ctx context.Context, actorID id.ID, commentID string) error
}

// CommentHandler handles comment HTTP requests.
type CommentHandler struct {
	commentService CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// RegisterRoutes registers comment routes with the router.
func (h *CommentHandler) RegisterRoutes(r *httpserver.Router) {
	r.Auth().POST("/comments", h.Create)
	r.Auth().GET("/tasks/:taskId/comments", h.ListByTask)
	r.Auth().PATCH("/comments/:commentId", h.Update)
	r.Auth().DELETE("/comments/:commentId", h.Delete)
}

// Create handles POST /api/v1/comments.
func (h *CommentHandler) Create(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID.IsZero() {
		return respondUnauthorized(c)
	}

	var req CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	cm, err := h.commentService.CreateComment(c.Request().Context(), userID, req.TaskID, req.Message)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, cm)
}

// ListByTask handles GET /api/v1/tasks/:taskId/comments.
func (h *CommentHandler) ListByTask(c echo.Context) error {
	comments, err := h.commentService.ListTaskComments(c.Request().Context(), c.Param("taskId"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	if comments == nil {
		comments = []*comment.Comment{}
	}

	return httpserver.RespondOK(c, comments)
}

// Update handles PATCH /api/v1/comments/:commentId.
func (h *CommentHandler) Update(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID.IsZero() {
		return respondUnauthorized(c)
	}

	var req UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	cm, err := h.commentService.UpdateComment(c.Request().Context(), userID, c.Param("commentId"), req.Message)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, cm)
}

// Delete handles DELETE /api/v1/comments/:commentId.
func (h *CommentHandler) Delete(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID.IsZero() {
		return respondUnauthorized(c)
	}

	if err := h.commentService.DeleteComment(c.Request().Context(), userID, c.Param("commentId")); err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondNoContent(c)
}
