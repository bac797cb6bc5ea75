package task

import (
	"net/http"

	"github.com/lllypuk/taskboard/internal/domain/errs"
)

// appError implements httpserver.HTTPError. Unwrap exposes the domain
// sentinel so errors.Is keeps working across layers.
type appError struct {
	kind    error
	status  int
	code    string
	msg     string
	message string // client facing; msg when empty
}

func newError(kind error, status int, code, msg string) *appError {
	return &appError{kind: kind, status: status, code: code, msg: msg}
}

func (e *appError) withMessage(message string) *appError {
	e.message = message
	return e
}

func (e *appError) Error() string    { return e.msg }
func (e *appError) Unwrap() error    { return e.kind }
func (e *appError) HTTPStatus() int  { return e.status }
func (e *appError) HTTPCode() string { return e.code }

func (e *appError) HTTPMessage() string {
	if e.message != "" {
		return e.message
	}
	return e.msg
}

// Ошибки валидации входных данных
var (
	ErrInvalidTaskID   = newError(errs.ErrInvalidReference, http.StatusBadRequest, "INVALID_TASK_ID", "invalid task id")
	ErrEmptyTitle      = newError(errs.ErrInvalidInput, http.StatusBadRequest, "EMPTY_TITLE", "task title cannot be empty")
	ErrInvalidAssignee = newError(errs.ErrInvalidReference, http.StatusBadRequest, "INVALID_REFERENCE", "invalid assignee id")

	ErrInvalidStatus = newError(errs.ErrInvalidEnum, http.StatusBadRequest, "INVALID_STATUS", "invalid status value").
		withMessage("status must be one of: todo, in-progress, done")
	ErrInvalidPriority = newError(errs.ErrInvalidEnum, http.StatusBadRequest, "INVALID_PRIORITY", "invalid priority value").
		withMessage("priority must be one of: low, medium, high")
	ErrBoardProjectMismatch = newError(errs.ErrInvalidInput, http.StatusBadRequest, "BOARD_PROJECT_MISMATCH",
		"board does not belong to project").withMessage("board does not belong to the given project")

	// ErrNoValidChanges rejects an update whose fields all match the stored task.
	ErrNoValidChanges = newError(errs.ErrNoChanges, http.StatusBadRequest, "NO_VALID_CHANGES", "no valid changes provided")
)

// Ошибки бизнес-логики
var (
	ErrTaskNotFound     = newError(errs.ErrNotFound, http.StatusNotFound, "TASK_NOT_FOUND", "task not found")
	ErrAssigneeNotFound = newError(errs.ErrNotFound, http.StatusNotFound, "ASSIGNEE_NOT_FOUND", "assignee not found")

	// ErrConcurrentUpdate is returned when tasks.conditional_update is on and
	// the task changed after it was read.
	ErrConcurrentUpdate = newError(errs.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_UPDATE",
		"task was modified concurrently").withMessage("task was modified by another request, reload and retry")
)
