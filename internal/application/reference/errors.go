package reference

import (
	"net/http"

	"github.com/lllypuk/taskboard/internal/domain/errs"
)

// appError is a helper type that implements httpserver.HTTPError interface.
type appError struct {
	msg        string
	kind       error
	httpStatus int
	httpCode   string
}

func (e *appError) Error() string       { return e.msg }
func (e *appError) Unwrap() error       { return e.kind }
func (e *appError) HTTPStatus() int     { return e.httpStatus }
func (e *appError) HTTPCode() string    { return e.httpCode }
func (e *appError) HTTPMessage() string { return e.msg }

var (
	// ErrInvalidUserID возвращается когда идентификатор пользователя невалиден
	ErrInvalidUserID = &appError{
		msg:        "invalid user id",
		kind:       errs.ErrInvalidReference,
		httpStatus: http.StatusBadRequest,
		httpCode:   "INVALID_REFERENCE",
	}

	// ErrInvalidBoardID возвращается когда идентификатор доски невалиден
	ErrInvalidBoardID = &appError{
		msg:        "invalid board id",
		kind:       errs.ErrInvalidReference,
		httpStatus: http.StatusBadRequest,
		httpCode:   "INVALID_REFERENCE",
	}

	// ErrInvalidProjectID возвращается когда идентификатор проекта невалиден
	ErrInvalidProjectID = &appError{
		msg:        "invalid project id",
		kind:       errs.ErrInvalidReference,
		httpStatus: http.StatusBadRequest,
		httpCode:   "INVALID_REFERENCE",
	}

	// ErrUserNotFound возвращается когда пользователь не найден
	ErrUserNotFound = &appError{
		msg:        "user not found",
		kind:       errs.ErrNotFound,
		httpStatus: http.StatusNotFound,
		httpCode:   "USER_NOT_FOUND",
	}

	// ErrBoardNotFound возвращается когда доска не найдена
	ErrBoardNotFound = &appError{
		msg:        "board not found",
		kind:       errs.ErrNotFound,
		httpStatus: http.StatusNotFound,
		httpCode:   "BOARD_NOT_FOUND",
	}

	// ErrProjectNotFound возвращается когда проект не найден
	ErrProjectNotFound = &appError{
		msg:        "project not found",
		kind:       errs.ErrNotFound,
		httpStatus: http.StatusNotFound,
		httpCode:   "PROJECT_NOT_FOUND",
	}
)
