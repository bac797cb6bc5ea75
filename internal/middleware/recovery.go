package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/taskboard/internal/application/appcore"
)

// DefaultStackSize caps the captured stack trace (4KB).
const DefaultStackSize = 4 << 10

// PanicObserver is told about every recovered panic, e.g. to count them.
type PanicObserver interface {
	ObservePanic(method, route string)
}

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	Logger *slog.Logger

	// StackSize is the maximum number of stack bytes logged.
	StackSize int

	// AllGoroutines logs the stacks of every goroutine, not only the panicking one.
	AllGoroutines bool

	// OmitStack drops the stack from the log entry.
	OmitStack bool

	// Observer is optional.
	Observer PanicObserver
}

// DefaultRecoveryConfig returns a RecoveryConfig with sensible defaults.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		Logger:    slog.Default(),
		StackSize: DefaultStackSize,
	}
}

// Recovery returns a middleware that recovers from panics and logs the error.
func Recovery(logger *slog.Logger) echo.MiddlewareFunc {
	config := DefaultRecoveryConfig()
	config.Logger = logger
	return RecoveryWithConfig(config)
}

// RecoveryWithConfig turns a panic in any later handler into a 500
// INTERNAL_ERROR response. http.ErrAbortHandler is re-raised so net/http can
// abort the connection.
func RecoveryWithConfig(config RecoveryConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.StackSize <= 0 {
		config.StackSize = DefaultStackSize
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returned error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(r)
				}

				config.report(c, panicError(r))
				returned = nil

				if !c.Response().Committed {
					_ = c.JSON(http.StatusInternalServerError, map[string]any{
						"success": false,
						"error": map[string]string{
							"code":    "INTERNAL_ERROR",
							"message": "An internal error occurred",
						},
					})
				}
			}()

			return next(c)
		}
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// report logs the panic with the request it interrupted.
func (config RecoveryConfig) report(c echo.Context, err error) {
	req := c.Request()

	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.String("route", c.Path()),
		slog.String("remote_ip", c.RealIP()),
	}
	requestID, idErr := appcore.GetCorrelationID(req.Context())
	if idErr != nil {
		requestID = req.Header.Get(echo.HeaderXRequestID)
	}
	if requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if !config.OmitStack {
		stack := make([]byte, config.StackSize)
		stack = stack[:runtime.Stack(stack, config.AllGoroutines)]
		attrs = append(attrs, slog.String("stack", string(stack)))
	}

	config.Logger.ErrorContext(req.Context(), "panic recovered", attrs...)

	if config.Observer != nil {
		config.Observer.ObservePanic(req.Method, c.Path())
	}
}
