package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/taskboard/internal/domain/errs"
)

// Response is the envelope of every JSON response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error represents an error in the API response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPError lets application errors pick their own status, code and message.
type HTTPError interface {
	error
	HTTPStatus() int
	HTTPCode() string
	HTTPMessage() string
}

// RespondJSON sends data in a success envelope.
func RespondJSON(c echo.Context, code int, data any) error {
	return c.JSON(code, Response{Success: true, Data: data})
}

// RespondOK sends a 200 OK response with data.
func RespondOK(c echo.Context, data any) error {
	return RespondJSON(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data.
func RespondCreated(c echo.Context, data any) error {
	return RespondJSON(c, http.StatusCreated, data)
}

// RespondNoContent sends a 204 No Content response.
func RespondNoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// RespondError renders err through MapError.
func RespondError(c echo.Context, err error) error {
	status, apiError := MapError(err)
	return c.JSON(status, Response{Error: apiError})
}

// RespondErrorWithCode renders an explicit status, code and message.
func RespondErrorWithCode(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{Error: &Error{Code: code, Message: message}})
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty means err.Error()
}

// errorMappings is checked in order; the first sentinel err wraps wins.
var errorMappings = []errorMapping{
	{errs.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found"},
	{errs.ErrAlreadyExists, http.StatusConflict, "CONFLICT", "The resource already exists"},
	{errs.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_UPDATE", "Resource was modified by another request"},
	{errs.ErrInvalidInput, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{errs.ErrInvalidReference, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{errs.ErrInvalidEnum, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{errs.ErrNoChanges, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{errs.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{errs.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Access denied"},
}

// MapError maps an error to its HTTP status and API error. HTTPError
// implementations win over the sentinels they wrap; anything unknown is a
// 500 that hides the cause.
func MapError(err error) (int, *Error) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.HTTPStatus(), &Error{Code: httpErr.HTTPCode(), Message: httpErr.HTTPMessage()}
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		return m.status, &Error{Code: m.code, Message: message}
	}

	return http.StatusInternalServerError, &Error{Code: "INTERNAL_ERROR", Message: "An internal error occurred"}
}

// ErrorHandler renders errors that escape handlers, including echo's own
// 404 and 405, in the response envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		_ = RespondErrorWithCode(c, he.Code, statusCode(he.Code), message)
		return
	}

	_ = RespondError(c, err)
}

func statusCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusTooManyRequests:
		return "RATE_LIMIT_EXCEEDED"
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}
