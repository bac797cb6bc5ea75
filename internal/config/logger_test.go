package config_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/config"
)

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, config.LogConfig{Level: tt.level}.SlogLevel())
		})
	}
}

func TestConfig_NewLogger_JSON(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Level = "warn"

	var out bytes.Buffer
	logger := cfg.NewLogger(&out)

	logger.Info("dropped")
	logger.Warn("task update rejected", slog.String("task_id", "t-1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "task update rejected", entry["msg"])
	assert.Equal(t, "t-1", entry["task_id"])
	assert.NotContains(t, entry, "source")
}

func TestConfig_NewLogger_TextInDevelopment(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"

	var out bytes.Buffer
	cfg.NewLogger(&out).Debug("resolving assignee")

	assert.Contains(t, out.String(), "msg=\"resolving assignee\"")
	assert.Contains(t, out.String(), "source=")
}

func TestConfig_Environment(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		jwtSecret string
		want      string
	}{
		{"debug is development", "debug", "my-secure-production-secret", "development"},
		{"custom secret is production", "info", "my-secure-production-secret", "production"},
		{"dev secret is unknown", "info", "dev-secret-change-in-production", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Log.Level = tt.logLevel
			cfg.Auth.JWTSecret = tt.jwtSecret
			assert.Equal(t, tt.want, cfg.Environment())
		})
	}
}
