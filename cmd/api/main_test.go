package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/config"
)

func TestShutdown_StopsServicesAndClosesContainer(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	c := newContainer(config.DefaultConfig(), WithLogger(logger))

	err := shutdown(c, stop, logger)

	require.NoError(t, err)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Contains(t, logs.String(), "closing container resources")
	assert.Contains(t, logs.String(), "server shutdown complete")
}

func TestRun_FailsOnUnreachableInfrastructure(t *testing.T) {
	cfg := testConfig()
	cfg.MongoDB.Timeout = 200 * time.Millisecond

	var logs bytes.Buffer
	err := run(cfg, slog.New(slog.NewTextHandler(&logs, nil)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "build container")
	assert.Contains(t, logs.String(), "starting taskboard API server")
}
