package httpserver_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer runs s in the background and waits for its listener.
func startServer(t *testing.T, s *httpserver.Server) (string, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Echo().ListenerAddr() != nil },
		2*time.Second, 10*time.Millisecond)

	return "http://" + s.Echo().ListenerAddr().String(), cancel, done
}

func TestDefaultServerConfig(t *testing.T) {
	config := httpserver.DefaultServerConfig()

	assert.Equal(t, httpserver.DefaultAddr, config.Addr)
	assert.Equal(t, httpserver.DefaultReadTimeout, config.ReadTimeout)
	assert.Equal(t, httpserver.DefaultWriteTimeout, config.WriteTimeout)
	assert.Equal(t, httpserver.DefaultIdleTimeout, config.IdleTimeout)
	assert.Equal(t, httpserver.DefaultShutdownTimeout, config.ShutdownTimeout)
	assert.Equal(t, httpserver.DefaultMaxHeaderBytes, config.MaxHeaderBytes)
}

func TestNewServer_AppliesConfig(t *testing.T) {
	e := echo.New()

	s := httpserver.NewServer(e, httpserver.ServerConfig{
		Addr:         "127.0.0.1:3000",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  time.Minute,
	}, nil)

	assert.Same(t, e, s.Echo())
	assert.Equal(t, "127.0.0.1:3000", s.Address())
	assert.True(t, e.HideBanner)
	assert.Equal(t, 15*time.Second, e.Server.ReadTimeout)
	assert.Equal(t, 20*time.Second, e.Server.WriteTimeout)
	assert.Equal(t, time.Minute, e.Server.IdleTimeout)
	assert.Equal(t, httpserver.DefaultMaxHeaderBytes, e.Server.MaxHeaderBytes)
}

func TestNewServer_EmptyAddrUsesDefault(t *testing.T) {
	s := httpserver.NewServer(echo.New(), httpserver.ServerConfig{}, nil)

	assert.Equal(t, httpserver.DefaultAddr, s.Address())
}

func TestServer_RunServesUntilCancelled(t *testing.T) {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	config := httpserver.DefaultServerConfig()
	config.Addr = "127.0.0.1:0"
	base, cancel, done := startServer(t, httpserver.NewServer(e, config, quietLogger()))

	resp, err := http.Get(base + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err = http.Get(base + "/ping")
	assert.Error(t, err)
}

func TestServer_RunDrainsInFlightRequests(t *testing.T) {
	started := make(chan struct{})
	e := echo.New()
	e.GET("/slow", func(c echo.Context) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		return c.String(http.StatusOK, "finished")
	})

	config := httpserver.DefaultServerConfig()
	config.Addr = "127.0.0.1:0"
	base, cancel, done := startServer(t, httpserver.NewServer(e, config, quietLogger()))

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get(base + "/slow")
		if err != nil {
			status <- 0
			return
		}
		_ = resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-started
	cancel()

	assert.Equal(t, http.StatusOK, <-status)
	assert.NoError(t, <-done)
}

func TestServer_RunReportsListenError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = taken.Close() })

	config := httpserver.DefaultServerConfig()
	config.Addr = taken.Addr().String()
	s := httpserver.NewServer(echo.New(), config, quietLogger())

	err = s.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), taken.Addr().String())
}
