package service

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
	httpMsg    string
}

func (e *appError) Error() string       { return e.msg }
func (e *appError) Unwrap() error       { return e.kind }
func (e *appError) HTTPStatus() int     { return e.httpStatus }
func (e *appError) HTTPCode() string    { return e.httpCode }
func (e *appError) HTTPMessage() string { return e.httpMsg }

var (
	// Auth errors

	// ErrInvalidName возвращается когда имя пустое
	ErrInvalidName = &appError{
		msg:        "name is required",
		kind:       errs.ErrInvalidInput,
		httpStatus: http.StatusBadRequest,
		httpCode:   "VALIDATION_ERROR",
		httpMsg:    "name is required",
	}

	// ErrInvalidEmail возвращается когда email невалиден
	ErrInvalidEmail = &appError{
		msg:        "invalid email",
		kind:       errs.ErrInvalidInput,
		httpStatus: http.StatusBadRequest,
		httpCode:   "VALIDATION_ERROR",
		httpMsg:    "a valid email is required",
	}

	// ErrWeakPassword возвращается когда пароль слишком короткий
	ErrWeakPassword = &appError{
		msg:        "password too short",
		kind:       errs.ErrInvalidInput,
		httpStatus: http.StatusBadRequest,
		httpCode:   "VALIDATION_ERROR",
		httpMsg:    "password must be at least 6 characters",
	}

	// ErrEmailExists возвращается когда email уже зарегистрирован
	ErrEmailExists = &appError{
		msg:        "email already registered",
		kind:       errs.ErrAlreadyExists,
		httpStatus: http.StatusConflict,
		httpCode:   "EMAIL_EXISTS",
		httpMsg:    "a user with this email already exists",
	}

	// ErrInvalidCredentials возвращается при неверном email или пароле
	ErrInvalidCredentials = &appError{
		msg:        "invalid credentials",
		kind:       errs.ErrUnauthorized,
		httpStatus: http.StatusUnauthorized,
		httpCode:   "INVALID_CREDENTIALS",
		httpMsg:    "invalid email or password",
	}

	// ErrInvalidRefreshToken возвращается когда refresh токен невалиден, истёк или отозван
	ErrInvalidRefreshToken = &appError{
		msg:        "invalid refresh token",
		kind:       errs.ErrForbidden,
		httpStatus: http.StatusForbidden,
		httpCode:   "INVALID_REFRESH_TOKEN",
		httpMsg:    "refresh token is invalid, expired or revoked",
	}

	// ErrAccountNotFound возвращается когда пользователь токена не найден
	ErrAccountNotFound = &appError{
		msg:        "user not found",
		kind:       errs.ErrNotFound,
		httpStatus: http.StatusNotFound,
		httpCode:   "USER_NOT_FOUND",
		httpMsg:    "user not found",
	}

	// Project errors

	// ErrInvalidProject возвращается когда имя или ключ проекта невалидны
	ErrInvalidProject = &appError{
		msg:        "invalid project",
		kind:       errs.ErrInvalidInput,
		httpStatus: http.StatusBadRequest,
		httpCode:   "VALIDATION_ERROR",
		httpMsg:    "name is required and key must be 2-10 letters or digits starting with a letter",
	}

	// ErrProjectKeyExists возвращается когда ключ проекта занят
	ErrProjectKeyExists = &appError{
		msg:        "project key already exists",
		kind:       errs.ErrAlreadyExists,
		httpStatus: http.StatusConflict,
		httpCode:   "PROJECT_KEY_EXISTS",
		httpMsg:    "a project with this key already exists",
	}

	// Board errors

	// ErrInvalidBoard возвращается когда имя доски пустое
	ErrInvalidBoard = &appError{
		msg:        "invalid board",
		kind:       errs.ErrInvalidInput,
		httpStatus: http.StatusBadRequest,
		httpCode:   "VALIDATION_ERROR",
		httpMsg:    "board name is required",
	}

	// ErrInvalidBoardType возвращается когда тип доски не kanban и не scrum
	ErrInvalidBoardType = &appError{
		msg:        "invalid board type",
		kind:       errs.ErrInvalidEnum,
		httpStatus: http.StatusBadRequest,
		httpCode:   "INVALID_BOARD_TYPE",
		httpMsg:    "type must be one of: kanban, scrum",
	}

	// Comment errors

	// ErrInvalidCommentID возвращается когда id комментария невалиден
	ErrInvalidCommentID = &appError{
		msg:        "invalid comment id",
		kind:       errs.ErrInvalidReference,
		httpStatus: http.StatusBadRequest,
		httpCode:   "INVALID_REFERENCE",
		httpMsg:    "invalid comment id",
	}

	// ErrEmptyComment возвращается когда сообщение пустое
	ErrEmptyComment = &appError{
		msg:        "comment message is empty",
		kind:       errs.ErrInvalidInput,
		httpStatus: http.StatusBadRequest,
		httpCode:   "VALIDATION_ERROR",
		httpMsg:    "message is required",
	}

	// ErrCommentNotFound возвращается когда комментарий не найден
	ErrCommentNotFound = &appError{
		msg:        "comment not found",
		kind:       errs.ErrNotFound,
		httpStatus: http.StatusNotFound,
		httpCode:   "COMMENT_NOT_FOUND",
		httpMsg:    "comment not found",
	}

	// ErrNotCommentAuthor возвращается когда комментарий правит не автор
	ErrNotCommentAuthor = &appError{
		msg:        "not the comment author",
		kind:       errs.ErrForbidden,
		httpStatus: http.StatusForbidden,
		httpCode:   "NOT_COMMENT_AUTHOR",
		httpMsg:    "only the author may change this comment",
	}
)
