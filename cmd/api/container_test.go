package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/taskboard/internal/config"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/taskboard/internal/middleware"
)

// unreachable endpoints; neither driver dials until the first command
const (
	unreachableMongoURI   = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200"
	unreachableRedisAddr  = "127.0.0.1:1"
	offlineDialTimeout    = 200 * time.Millisecond
	testContainerJWTToken = "test-secret-key-0123456789"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.MongoDB.URI = unreachableMongoURI
	cfg.Redis.Addr = unreachableRedisAddr
	cfg.Auth.JWTSecret = testContainerJWTToken
	cfg.Auth.BcryptCost = 4
	cfg.RateLimit.Enabled = false
	return cfg
}

// newOfflineContainer wires a container over clients that point nowhere.
func newOfflineContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()

	c := newContainer(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoDB.URI))
	require.NoError(t, err)
	c.MongoDB = client
	c.Database = client.Database("taskboard_offline")
	c.Redis = redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr,
		DialTimeout: offlineDialTimeout,
		MaxRetries:  -1,
	})

	require.NoError(t, c.wire())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestContainerOption_WithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := newContainer(config.DefaultConfig(), WithLogger(logger))
	assert.Same(t, logger, c.Logger)

	// nil logger falls back to the default
	c = newContainer(config.DefaultConfig(), WithLogger(nil))
	assert.NotNil(t, c.Logger)
}

func TestNewContainer_UnreachableInfrastructure(t *testing.T) {
	cfg := testConfig()
	cfg.MongoDB.Timeout = 300 * time.Millisecond

	c, err := NewContainer(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "mongodb")
}

func TestContainer_Wire_PopulatesComponents(t *testing.T) {
	c := newOfflineContainer(t, testConfig())

	assert.NotNil(t, c.EventBus)
	assert.NotNil(t, c.DeadLetters)
	assert.NotNil(t, c.Hub)
	assert.NotNil(t, c.Broadcaster)
	assert.NotNil(t, c.Registry)
	assert.NotNil(t, c.Resolver)
	assert.NotNil(t, c.Issuer)
	assert.NotNil(t, c.TokenStore)
	assert.NotNil(t, c.TokenValidator)
	assert.NotNil(t, c.UserResolver)
	assert.NotNil(t, c.UpdateTaskUC)
	assert.NotNil(t, c.TaskService)
	assert.NotNil(t, c.CommentService)
	assert.NotNil(t, c.TaskHandler)
	assert.NotNil(t, c.WSHandler)
	assert.NotNil(t, c.Health)
	assert.Nil(t, c.JWKSValidator, "no jwks url configured")
}

func TestContainer_Wire_IssuedTokensValidate(t *testing.T) {
	c := newOfflineContainer(t, testConfig())

	userID := id.New()
	issued, err := c.Issuer.IssueAccessToken(userID.String(), "ann@example.com", "Ann")
	require.NoError(t, err)

	claims, err := c.TokenValidator.ValidateToken(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)

	_, err = c.TokenValidator.ValidateToken(context.Background(), "garbage")
	require.ErrorIs(t, err, middleware.ErrInvalidToken)
}

func TestContainer_Wire_InsecureSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	c := newContainer(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoDB.URI))
	require.NoError(t, err)
	c.MongoDB = client
	c.Database = client.Database("taskboard_offline")
	c.Redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	t.Cleanup(func() { _ = c.Close() })

	err = c.wire()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token issuer")
}

func TestContainer_Close_NoResources(t *testing.T) {
	c := newContainer(config.DefaultConfig())
	assert.NoError(t, c.Close())
}

func TestContainer_HealthBeforeWiring(t *testing.T) {
	c := newContainer(config.DefaultConfig())

	assert.False(t, c.IsReady(context.Background()))

	statuses := c.GetHealthStatus(context.Background())
	require.Len(t, statuses, 1)
	assert.Equal(t, httpserver.StatusUnhealthy, statuses[0].Status)
}

func TestContainer_GetHealthStatus_ComponentNames(t *testing.T) {
	c := newOfflineContainer(t, testConfig())

	statuses := c.GetHealthStatus(context.Background())
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
	}

	assert.Equal(t, []string{"mongodb", "redis", "websocket_hub", "eventbus", "dead_letter_queue"}, names)
	assert.False(t, c.IsReady(context.Background()))
}

func TestContainer_StartEventBus_NilEventBus(t *testing.T) {
	c := newContainer(config.DefaultConfig())
	require.Error(t, c.StartEventBus(context.Background()))
}

func TestContainer_StartHub(t *testing.T) {
	c := newOfflineContainer(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.StartHub(ctx)
	assert.Eventually(t, c.Hub.IsRunning, time.Second, 10*time.Millisecond)

	// No hub is a no-op
	newContainer(config.DefaultConfig()).StartHub(ctx)
}

func TestContainerTimeoutConstants(t *testing.T) {
	assert.Equal(t, 30*time.Second, containerInitTimeout)
	assert.Equal(t, 5*time.Second, redisPingTimeout)
	assert.Equal(t, 10*time.Second, mongoDisconnectTimeout)
}

type stubTokenValidator struct {
	claims *middleware.TokenClaims
	err    error
}

func (v stubTokenValidator) ValidateToken(context.Context, string) (*middleware.TokenClaims, error) {
	return v.claims, v.err
}

type stubUserResolver struct {
	userID id.ID
	err    error
	calls  int
}

func (r *stubUserResolver) ResolveUser(context.Context, string, string) (id.ID, error) {
	r.calls++
	return r.userID, r.err
}

func TestResolvingValidator(t *testing.T) {
	ctx := context.Background()

	t.Run("local subject passes through", func(t *testing.T) {
		users := &stubUserResolver{}
		local := id.New()
		v := &resolvingValidator{
			validator: stubTokenValidator{claims: &middleware.TokenClaims{UserID: local}},
			users:     users,
		}

		claims, err := v.ValidateToken(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, local, claims.UserID)
		assert.Zero(t, users.calls)
	})

	t.Run("external subject is resolved", func(t *testing.T) {
		resolved := id.New()
		v := &resolvingValidator{
			validator: stubTokenValidator{claims: &middleware.TokenClaims{
				ExternalUserID: "idp|42",
				Email:          "bob@example.com",
			}},
			users: &stubUserResolver{userID: resolved},
		}

		claims, err := v.ValidateToken(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, resolved, claims.UserID)
	})

	t.Run("unknown external user", func(t *testing.T) {
		v := &resolvingValidator{
			validator: stubTokenValidator{claims: &middleware.TokenClaims{ExternalUserID: "idp|42"}},
			users:     &stubUserResolver{err: errors.New("no local user")},
		}

		_, err := v.ValidateToken(ctx, "token")
		require.ErrorIs(t, err, middleware.ErrInvalidToken)
	})

	t.Run("validation error", func(t *testing.T) {
		v := &resolvingValidator{validator: stubTokenValidator{err: middleware.ErrTokenExpired}}

		_, err := v.ValidateToken(ctx, "token")
		require.ErrorIs(t, err, middleware.ErrTokenExpired)
	})
}

func TestAllowOrigins(t *testing.T) {
	check := allowOrigins([]string{"https://board.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "https://board.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
}
