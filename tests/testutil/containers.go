package testutil

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
)

const containerStartupTimeout = 90 * time.Second

// sharedContainer starts one container per test binary on first use. A
// failed start is remembered so every test fails fast with the same error.
type sharedContainer struct {
	request testcontainers.ContainerRequest
	port    nat.Port
	reuse   bool

	once sync.Once
	addr string
	err  error
}

// requireDocker skips container-backed tests under -short and when no
// container runtime answers.
func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("container tests are skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// address returns host:port of the mapped service port.
func (s *sharedContainer) address() (string, error) {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), containerStartupTimeout)
		defer cancel()
		s.addr, s.err = s.start(ctx)
	})
	return s.addr, s.err
}

func (s *sharedContainer) start(ctx context.Context) (string, error) {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: s.request,
		Started:          true,
		Reuse:            s.reuse,
	})
	if err != nil {
		return "", fmt.Errorf("start %s: %w", s.request.Image, err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("%s host: %w", s.request.Image, err)
	}
	mapped, err := c.MappedPort(ctx, s.port)
	if err != nil {
		return "", fmt.Errorf("%s port %s: %w", s.request.Image, s.port, err)
	}
	return net.JoinHostPort(host, mapped.Port()), nil
}
