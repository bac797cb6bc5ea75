// Package healthcheck provides component checks for the health endpoints.
package healthcheck

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
)

// Errors reported by component checks.
var (
	ErrNotInitialized = errors.New("not initialized")
	ErrNotRunning     = errors.New("not running")
)

// Runner is a background component that reports whether its loop is alive.
type Runner interface {
	IsRunning() bool
}

// MongoDB pings the primary. The API cannot serve without it.
func MongoDB(client *mongo.Client) httpserver.ComponentCheck {
	return httpserver.ComponentCheck{
		Name:     "mongodb",
		Critical: true,
		Check: func(ctx context.Context) error {
			if client == nil {
				return ErrNotInitialized
			}
			return client.Ping(ctx, readpref.Primary())
		},
	}
}

// Redis pings the server holding refresh tokens, rate limits and events.
func Redis(client redis.UniversalClient) httpserver.ComponentCheck {
	return httpserver.ComponentCheck{
		Name:     "redis",
		Critical: true,
		Check: func(ctx context.Context) error {
			if client == nil {
				return ErrNotInitialized
			}
			return client.Ping(ctx).Err()
		},
	}
}

// Running checks that a background loop is alive.
func Running(name string, r Runner, critical bool) httpserver.ComponentCheck {
	return httpserver.ComponentCheck{
		Name:     name,
		Critical: critical,
		Check: func(context.Context) error {
			if r == nil {
				return ErrNotInitialized
			}
			if !r.IsRunning() {
				return ErrNotRunning
			}
			return nil
		},
	}
}
