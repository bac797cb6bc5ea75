package config

import (
	"io"
	"log/slog"
	"strings"
)

// SlogLevel maps the configured level onto slog. Unknown levels log at info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger writing to w. Text format is opt-in,
// anything else is JSON. Source locations are added in development.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     c.Log.SlogLevel(),
		AddSource: c.IsDevelopment(),
	}

	if strings.EqualFold(c.Log.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Environment names the deployment the configuration looks like.
func (c *Config) Environment() string {
	switch {
	case c.IsDevelopment():
		return "development"
	case c.IsProduction():
		return "production"
	default:
		return "unknown"
	}
}
