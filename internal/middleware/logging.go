package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lllypuk/taskboard/internal/application/appcore"
)

// RequestIDHeader carries the request id in both directions. The id becomes
// the correlation id of every event the request publishes.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client supplied ids.
const maxRequestIDLength = 128

// LoggingConfig holds configuration for the logging middleware.
type LoggingConfig struct {
	Logger    *slog.Logger
	SkipPaths []string

	// SlowRequest raises successful requests slower than this to warn.
	// Zero disables the check.
	SlowRequest time.Duration
}

// DefaultLoggingConfig returns a LoggingConfig with sensible defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Logger:    slog.Default(),
		SkipPaths: []string{"/health", "/ready"},
	}
}

// Logging assigns every request an id and writes one access log entry when
// it completes. Handler errors are rendered here so the entry carries the
// status the client received.
func Logging(config LoggingConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			requestID := acceptRequestID(c.Request().Header.Get(RequestIDHeader))
			c.Response().Header().Set(RequestIDHeader, requestID)
			req := c.Request().WithContext(appcore.WithCorrelationID(c.Request().Context(), requestID))
			c.SetRequest(req)

			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("route", c.Path()),
				slog.Int("status", res.Status),
				slog.Duration("latency", latency),
				slog.String("remote_ip", c.RealIP()),
				slog.String("user_agent", req.UserAgent()),
				slog.Int64("response_size", res.Size),
			}
			if userID := GetUserID(c); !userID.IsZero() {
				attrs = append(attrs, slog.String("user_id", userID.String()))
			}
			if req.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", req.URL.RawQuery))
			}
			if req.ContentLength > 0 {
				attrs = append(attrs, slog.Int64("content_length", req.ContentLength))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}

			level := slog.LevelInfo
			switch {
			case res.Status >= http.StatusInternalServerError:
				level = slog.LevelError
			case res.Status >= http.StatusBadRequest:
				level = slog.LevelWarn
			case config.SlowRequest > 0 && latency > config.SlowRequest:
				level = slog.LevelWarn
				attrs = append(attrs, slog.Bool("slow", true))
			}

			config.Logger.LogAttrs(req.Context(), level, "HTTP request", attrs...)

			// already rendered above
			return nil
		}
	}
}

// acceptRequestID keeps a client supplied id when it is short and printable
// ASCII, otherwise a fresh one is generated.
func acceptRequestID(supplied string) string {
	if supplied == "" || len(supplied) > maxRequestIDLength {
		return uuid.NewString()
	}
	for i := range len(supplied) {
		if supplied[i] < '!' || supplied[i] > '~' {
			return uuid.NewString()
		}
	}
	return supplied
}
