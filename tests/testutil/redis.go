package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/docker/docker/api/types/container"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	redisTimeout     = 10 * time.Second
	redisMemoryLimit = 128 << 20
	redisPoolSize    = 10
)

var sharedRedis = &sharedContainer{
	port: "6379/tcp",
	request: testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Memory = redisMemoryLimit
			hc.MemorySwap = redisMemoryLimit
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(containerStartupTimeout),
			wait.ForListeningPort("6379/tcp").WithStartupTimeout(containerStartupTimeout),
		),
	},
}

// SetupTestRedis connects to the shared Redis container. The database is
// flushed when the test ends, so tests sharing a package must not run in
// parallel unless they isolate keys with SetupTestRedisWithPrefix.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	requireDocker(t)

	addr, err := sharedRedis.address()
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: addr, PoolSize: redisPoolSize})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		t.Fatalf("ping redis: %v", pingErr)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})
	return client
}

// SetupTestRedisWithPrefix also returns a key and channel prefix unique to
// the test.
func SetupTestRedisWithPrefix(t *testing.T) (*redis.Client, string) {
	t.Helper()
	return SetupTestRedis(t), "test:" + strings.ReplaceAll(t.Name(), "/", "_") + ":"
}

// SetupMiniRedis starts an in-process Redis for tests that need no Pub/Sub
// and must run under -short. The server is returned so tests can move its
// clock with FastForward.
func SetupMiniRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}
