package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/domain/history"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/taskboard/internal/middleware"
)

// dateOnlyLayout is accepted for due dates alongside RFC 3339.
const dateOnlyLayout = "2006-01-02"

// Task handler errors.
var (
	ErrInvalidTaskDueDate = errors.New("invalid task due date")
	ErrInvalidFieldType   = errors.New("invalid field type")
)

// CreateTaskRequest represents the request to create a task.
type CreateTaskRequest struct {
	BoardID     string  `json:"boardId"`
	ProjectID   string  `json:"projectId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	Assignee    string  `json:"assignee"`
	DueDate     *string `json:"dueDate"`
}

// BoardTaskResponse is a listed task with its assignee populated.
type BoardTaskResponse struct {
	ID          id.ID                 `json:"id"`
	BoardID     id.ID                 `json:"boardId"`
	ProjectID   id.ID                 `json:"projectId"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      task.Status           `json:"status"`
	Priority    task.Priority         `json:"priority"`
	Assignee    *taskapp.AssigneeView `json:"assignee"`
	DueDate     *time.Time            `json:"dueDate"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// TaskService defines the interface for task operations.
// Declared on the consumer side per project guidelines.
type TaskService interface {
	// CreateTask creates a new task.
	CreateTask(ctx context.Context, cmd taskapp.CreateTaskCommand) (taskapp.TaskResult, error)

	// UpdateTask applies a partial update and records its change log.
	UpdateTask(ctx context.Context, cmd taskapp.UpdateTaskCommand) (taskapp.UpdateResult, error)

	// GetTask gets a task by ID.
	GetTask(ctx context.Context, taskID string) (*task.Task, error)

	// ListBoardTasks lists the tasks of a board.
	ListBoardTasks(ctx context.Context, boardID string) ([]taskapp.TaskView, error)

	// DeleteTask deletes a task and its comments.
	DeleteTask(ctx context.Context, cmd taskapp.DeleteTaskCommand) error

	// ListHistory returns the change log of a task.
	ListHistory(ctx context.Context, taskID string) ([]history.ChangeRecord, error)
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// RegisterRoutes registers task routes with the router.
func (h *TaskHandler) RegisterRoutes(r *httpserver.Router) {
	r.Auth().POST("/tasks", h.Create)
	r.Auth().GET("/boards/:boardId/tasks", h.ListByBoard)
	r.Auth().GET("/tasks/:taskId", h.Get)
	r.Auth().PATCH("/tasks/:taskId", h.Update)
	r.Auth().DELETE("/tasks/:taskId", h.Delete)
	r.Auth().GET("/tasks/:taskId/history", h.History)
}

// Create handles POST /api/v1/tasks.
func (h *TaskHandler) Create(c echo.Context) error {
	var req CreateTaskRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return respondInvalidBody(c)
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		parsed, parseErr := parseDueDate(*req.DueDate)
		if parseErr != nil {
			return respondInvalidDate(c)
		}
		dueDate = &parsed
	}

	result, err := h.taskService.CreateTask(c.Request().Context(), taskapp.CreateTaskCommand{
		BoardID:     req.BoardID,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
		DueDate:     dueDate,
		Actor:       middleware.GetUserID(c),
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, result.Task)
}

// Get handles GET /api/v1/tasks/:taskId.
func (h *TaskHandler) Get(c echo.Context) error {
	t, err := h.taskService.GetTask(c.Request().Context(), c.Param("taskId"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, t)
}

// ListByBoard handles GET /api/v1/boards/:boardId/tasks.
func (h *TaskHandler) ListByBoard(c echo.Context) error {
	views, err := h.taskService.ListBoardTasks(c.Request().Context(), c.Param("boardId"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	resp := make([]BoardTaskResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toBoardTaskResponse(v))
	}

	return httpserver.RespondOK(c, resp)
}

// Update handles PATCH /api/v1/tasks/:taskId.
// Only the fields present in the body are touched; null clears optional fields.
func (h *TaskHandler) Update(c echo.Context) error {
	body, err := decodePatchBody(c)
	if err != nil {
		return respondInvalidBody(c)
	}

	patch, err := parsePatch(body)
	if err != nil {
		if errors.Is(err, ErrInvalidTaskDueDate) {
			return respondInvalidDate(c)
		}
		return httpserver.RespondErrorWithCode(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}

	result, err := h.taskService.UpdateTask(c.Request().Context(), taskapp.UpdateTaskCommand{
		TaskID: c.Param("taskId"),
		Patch:  patch,
		Actor:  middleware.GetUserID(c),
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, result.Task)
}

// Delete handles DELETE /api/v1/tasks/:taskId.
func (h *TaskHandler) Delete(c echo.Context) error {
	err := h.taskService.DeleteTask(c.Request().Context(), taskapp.DeleteTaskCommand{
		TaskID: c.Param("taskId"),
		Actor:  middleware.GetUserID(c),
	})
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondNoContent(c)
}

// History handles GET /api/v1/tasks/:taskId/history.
func (h *TaskHandler) History(c echo.Context) error {
	records, err := h.taskService.ListHistory(c.Request().Context(), c.Param("taskId"))
	if err != nil {
		return httpserver.RespondError(c, err)
	}
	if records == nil {
		records = []history.ChangeRecord{}
	}

	return httpserver.RespondOK(c, records)
}

// decodePatchBody reads the body as a JSON object. A missing body, a JSON
// null and anything that is not an object are rejected.
func decodePatchBody(c echo.Context) (map[string]json.RawMessage, error) {
	req := c.Request()
	if req.Body == nil || req.Body == http.NoBody {
		return nil, errors.New("empty body")
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("body is null")
	}
	return body, nil
}

// parsePatch turns the raw body into a Patch. Unknown keys are ignored.
func parsePatch(body map[string]json.RawMessage) (task.Patch, error) {
	var (
		patch task.Patch
		err   error
	)

	if patch.Title, err = stringField(body, "title"); err != nil {
		return patch, err
	}
	if patch.Description, err = stringField(body, "description"); err != nil {
		return patch, err
	}
	if patch.Status, err = stringField(body, "status"); err != nil {
		return patch, err
	}
	if patch.Priority, err = stringField(body, "priority"); err != nil {
		return patch, err
	}
	if patch.Assignee, err = stringField(body, "assignee"); err != nil {
		return patch, err
	}

	raw, ok := body["dueDate"]
	if !ok {
		return patch, nil
	}
	if isJSONNull(raw) {
		patch.DueDate = task.Null[time.Time]()
		return patch, nil
	}
	var s string
	if unmarshalErr := json.Unmarshal(raw, &s); unmarshalErr != nil {
		return patch, ErrInvalidTaskDueDate
	}
	if s == "" {
		patch.DueDate = task.Null[time.Time]()
		return patch, nil
	}
	due, parseErr := parseDueDate(s)
	if parseErr != nil {
		return patch, ErrInvalidTaskDueDate
	}
	patch.DueDate = task.Some(due)

	return patch, nil
}

func stringField(body map[string]json.RawMessage, key string) (task.Optional[string], error) {
	raw, ok := body[key]
	if !ok {
		return task.Optional[string]{}, nil
	}
	if isJSONNull(raw) {
		return task.Null[string](), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return task.Optional[string]{}, fmt.Errorf("%w: %s must be a string", ErrInvalidFieldType, key)
	}
	return task.Some(s), nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseDueDate accepts RFC 3339 timestamps and plain dates (midnight UTC).
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnlyLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidTaskDueDate
	}
	return t.UTC(), nil
}

func respondInvalidDate(c echo.Context) error {
	return httpserver.RespondErrorWithCode(
		c,
		http.StatusBadRequest,
		"INVALID_DATE",
		"dueDate must be an RFC 3339 timestamp or a YYYY-MM-DD date",
	)
}

func toBoardTaskResponse(v taskapp.TaskView) BoardTaskResponse {
	t := v.Task
	return BoardTaskResponse{
		ID:          t.ID,
		BoardID:     t.BoardID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Assignee:    v.Assignee,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
