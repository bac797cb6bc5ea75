// Package main provides the API server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lllypuk/taskboard/internal/application/reference"
	taskapp "github.com/lllypuk/taskboard/internal/application/task"
	"github.com/lllypuk/taskboard/internal/config"
	"github.com/lllypuk/taskboard/internal/domain/id"
	httphandler "github.com/lllypuk/taskboard/internal/handler/http"
	wshandler "github.com/lllypuk/taskboard/internal/handler/websocket"
	"github.com/lllypuk/taskboard/internal/infrastructure/auth"
	"github.com/lllypuk/taskboard/internal/infrastructure/eventbus"
	"github.com/lllypuk/taskboard/internal/infrastructure/healthcheck"
	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/taskboard/internal/infrastructure/metrics"
	mongodbinfra "github.com/lllypuk/taskboard/internal/infrastructure/mongodb"
	"github.com/lllypuk/taskboard/internal/infrastructure/repository/mongodb"
	"github.com/lllypuk/taskboard/internal/infrastructure/websocket"
	"github.com/lllypuk/taskboard/internal/middleware"
	"github.com/lllypuk/taskboard/internal/service"
)

// Container initialization timeouts.
const (
	containerInitTimeout   = 30 * time.Second
	redisPingTimeout       = 5 * time.Second
	mongoDisconnectTimeout = 10 * time.Second
)

// wsMaxMessageSize caps browser commands.
const wsMaxMessageSize = 64 << 10

// refreshTokenKeyPrefix namespaces refresh token ids in Redis.
const refreshTokenKeyPrefix = "taskboard:refresh:"

// Container holds all application dependencies and manages their lifecycle.
type Container struct {
	// Configuration
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	MongoDB     *mongo.Client
	Database    *mongo.Database
	Redis       *redis.Client
	EventBus    *eventbus.RedisEventBus
	DeadLetters *eventbus.DeadLetterHandler
	LogHandler  *eventbus.LoggingHandler
	Hub         *websocket.Hub
	Broadcaster *websocket.Broadcaster
	Health      *httpserver.Checker

	// Metrics
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
	TaskMetrics *metrics.TaskMetrics

	// Repositories
	UserRepo    *mongodb.MongoUserRepository
	ProjectRepo *mongodb.MongoProjectRepository
	BoardRepo   *mongodb.MongoBoardRepository
	TaskRepo    *mongodb.MongoTaskRepository
	HistoryRepo *mongodb.MongoHistoryRepository
	CommentRepo *mongodb.MongoCommentRepository

	// Reference resolution shared by use cases, services and the board feed
	Resolver *reference.Resolver

	// Auth components
	Hasher         *auth.PasswordHasher
	Issuer         *auth.TokenIssuer
	TokenStore     *auth.TokenStore
	JWKSValidator  *auth.JWKSValidator // nil unless auth.jwks_url is set
	TokenValidator middleware.TokenValidator
	UserResolver   middleware.UserResolver

	// Use Cases
	UpdateTaskUC *taskapp.UpdateTaskUseCase

	// Services
	AuthService    *service.AuthService
	ProjectService *service.ProjectService
	BoardService   *service.BoardService
	TaskService    *service.TaskService
	CommentService *service.CommentService

	// HTTP Handlers
	AuthHandler    *httphandler.AuthHandler
	ProjectHandler *httphandler.ProjectHandler
	BoardHandler   *httphandler.BoardHandler
	TaskHandler    *httphandler.TaskHandler
	CommentHandler *httphandler.CommentHandler
	WSHandler      *wshandler.Handler
}

// Ensure Container implements httpserver.HealthChecker.
var _ httpserver.HealthChecker = (*Container)(nil)

// ContainerOption configures the Container.
type ContainerOption func(*Container)

// WithLogger sets a custom logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.Logger = logger
	}
}

// NewContainer connects to MongoDB and Redis and wires every component.
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	c := newContainer(cfg, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), containerInitTimeout)
	defer cancel()

	if err := c.setupInfrastructure(ctx); err != nil {
		// Clean up any partially initialized resources
		_ = c.Close()
		return nil, fmt.Errorf("failed to setup infrastructure: %w", err)
	}

	if err := c.wire(); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

func newContainer(cfg *config.Config, opts ...ContainerOption) *Container {
	c := &Container{
		Config: cfg,
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// wire builds everything above the MongoDB and Redis clients. The clients
// only need to exist: neither driver dials until the first command.
func (c *Container) wire() error {
	c.setupMetrics()
	c.setupEventBus()
	c.setupHub()
	c.setupRepositories()

	if err := c.setupAuth(); err != nil {
		return fmt.Errorf("failed to setup auth: %w", err)
	}

	c.setupServices()
	c.setupHTTPHandlers()
	c.setupHealth()

	if err := c.validateWiring(); err != nil {
		return fmt.Errorf("wiring validation failed: %w", err)
	}

	c.Logger.Info("container wired",
		slog.Bool("is_development", c.Config.IsDevelopment()),
		slog.Bool("is_production", c.Config.IsProduction()),
		slog.Bool("allow_anonymous", c.Config.Auth.AllowAnonymous),
		slog.Bool("external_tokens", c.JWKSValidator != nil),
		slog.Bool("conditional_update", c.Config.Tasks.ConditionalUpdate),
	)
	return nil
}

// validateWiring reports every component the handlers depend on that was
// left nil.
func (c *Container) validateWiring() error {
	required := []struct {
		name  string
		wired bool
	}{
		{"mongodb client", c.MongoDB != nil && c.Database != nil},
		{"redis client", c.Redis != nil},
		{"websocket hub", c.Hub != nil},
		{"event bus", c.EventBus != nil},
		{"token validator", c.TokenValidator != nil},
		{"update task use case", c.UpdateTaskUC != nil},
		{"http handlers", c.TaskHandler != nil && c.AuthHandler != nil && c.WSHandler != nil},
	}

	var errs []error
	for _, r := range required {
		if !r.wired {
			errs = append(errs, fmt.Errorf("%s not initialized", r.name))
		}
	}
	if c.Config.Auth.AllowAnonymous && c.Config.IsProduction() {
		c.Logger.Warn("anonymous writes are enabled with a production secret")
	}
	return errors.Join(errs...)
}

// setupInfrastructure connects to MongoDB and Redis.
func (c *Container) setupInfrastructure(ctx context.Context) error {
	if err := c.setupMongoDB(ctx); err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	if err := c.setupRedis(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// setupMongoDB connects, pings and creates indexes. mongo.Connect does not
// dial, so the ping is what proves the server is reachable.
func (c *Container) setupMongoDB(ctx context.Context) error {
	cfg := c.Config.MongoDB

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetMaxPoolSize(cfg.MaxPoolSize))
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.MongoDB = client

	if err = withTimeout(ctx, cfg.Timeout, func(ctx context.Context) error { return client.Ping(ctx, nil) }); err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}
	c.Database = client.Database(cfg.Database)

	if err = withTimeout(ctx, cfg.Timeout, func(ctx context.Context) error {
		return mongodbinfra.CreateAllIndexes(ctx, c.Database)
	}); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	c.Logger.InfoContext(ctx, "connected to MongoDB", slog.String("database", cfg.Database))
	return nil
}

func (c *Container) setupRedis(ctx context.Context) error {
	cfg := c.Config.Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := withTimeout(ctx, redisPingTimeout, func(ctx context.Context) error {
		return c.Redis.Ping(ctx).Err()
	}); err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}

	c.Logger.InfoContext(ctx, "connected to Redis", slog.String("addr", cfg.Addr))
	return nil
}

func withTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// setupMetrics creates a private registry so tests can build several containers.
func (c *Container) setupMetrics() {
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.HTTPMetrics = metrics.NewHTTPMetrics(c.Registry)
	c.TaskMetrics = metrics.NewTaskMetrics(c.Registry)
}

// setupEventBus initializes the event bus with its dead letter queue.
func (c *Container) setupEventBus() {
	c.DeadLetters = eventbus.NewDeadLetterHandler(
		c.Redis,
		eventbus.WithDeadLetterQueueKey(c.Config.EventBus.DeadLetterKey),
		eventbus.WithMaxDeadLetters(c.Config.EventBus.MaxDeadLetters),
		eventbus.WithDeadLetterLogger(c.Logger),
	)

	retry := eventbus.DefaultRetryConfig()
	retry.MaxRetries = c.Config.EventBus.MaxRetries

	c.EventBus = eventbus.NewRedisEventBus(
		c.Redis,
		eventbus.WithLogger(c.Logger),
		eventbus.WithChannelPrefix(c.Config.EventBus.ChannelPrefix),
		eventbus.WithRetryConfig(retry),
		eventbus.WithFailureHandler(c.DeadLetters),
		eventbus.WithMaxInFlight(c.Config.EventBus.MaxInFlight),
	)
	c.LogHandler = eventbus.NewLoggingHandler(c.Logger)

	c.Logger.Debug("event bus initialized",
		slog.String("prefix", c.Config.EventBus.ChannelPrefix),
		slog.String("dead_letter_key", c.Config.EventBus.DeadLetterKey),
	)
}

// setupHub initializes the WebSocket hub and the broadcaster feeding it.
func (c *Container) setupHub() {
	c.Hub = websocket.NewHub(
		websocket.WithHubLogger(c.Logger),
	)
	c.Broadcaster = websocket.NewBroadcaster(
		c.Hub,
		c.EventBus,
		websocket.WithBroadcasterLogger(c.Logger),
		websocket.WithEventTypes(websocket.DefaultEventTypes()),
	)

	c.Logger.Debug("websocket hub initialized")
}

// setupRepositories initializes all repository implementations.
func (c *Container) setupRepositories() {
	db := c.Database

	c.UserRepo = mongodb.NewMongoUserRepository(
		db.Collection(mongodbinfra.CollectionUsers),
		mongodb.WithUserRepoLogger(c.Logger),
	)
	c.ProjectRepo = mongodb.NewMongoProjectRepository(
		db.Collection(mongodbinfra.CollectionProjects),
		mongodb.WithProjectRepoLogger(c.Logger),
	)
	c.BoardRepo = mongodb.NewMongoBoardRepository(
		db.Collection(mongodbinfra.CollectionBoards),
		mongodb.WithBoardRepoLogger(c.Logger),
	)
	c.TaskRepo = mongodb.NewMongoTaskRepository(
		db.Collection(mongodbinfra.CollectionTasks),
		mongodb.WithTaskRepoLogger(c.Logger),
	)
	c.HistoryRepo = mongodb.NewMongoHistoryRepository(
		db.Collection(mongodbinfra.CollectionTaskHistory),
		mongodb.WithHistoryRepoLogger(c.Logger),
	)
	c.CommentRepo = mongodb.NewMongoCommentRepository(
		db.Collection(mongodbinfra.CollectionComments),
		mongodb.WithCommentRepoLogger(c.Logger),
	)

	c.Resolver = reference.NewResolver(c.UserRepo, c.BoardRepo, c.ProjectRepo)

	c.Logger.Debug("repositories initialized")
}

// setupAuth builds the token issuer, refresh token store and validator chain.
// Locally issued tokens are tried first; with auth.jwks_url set, tokens signed
// by the external provider are accepted too.
func (c *Container) setupAuth() error {
	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		Secret:     c.Config.Auth.JWTSecret,
		Issuer:     c.Config.Auth.Issuer,
		AccessTTL:  c.Config.Auth.AccessTokenTTL,
		RefreshTTL: c.Config.Auth.RefreshTokenTTL,
		Leeway:     c.Config.Auth.Leeway,
	})
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	c.Issuer = issuer
	c.Hasher = auth.NewPasswordHasher(c.Config.Auth.BcryptCost)
	c.TokenStore = auth.NewTokenStore(auth.TokenStoreConfig{
		Client:    c.Redis,
		KeyPrefix: refreshTokenKeyPrefix,
	})

	validators := []auth.Validator{issuer}
	if c.Config.Auth.JWKSURL != "" {
		jwks, jwksErr := auth.NewJWKSValidator(auth.JWKSValidatorConfig{
			JWKSURL:         c.Config.Auth.JWKSURL,
			Leeway:          c.Config.Auth.Leeway,
			RefreshInterval: c.Config.Auth.JWKSRefreshInterval,
			Logger:          c.Logger,
		})
		if jwksErr != nil {
			return fmt.Errorf("jwks validator: %w", jwksErr)
		}
		c.JWKSValidator = jwks
		validators = append(validators, jwks)

		c.Logger.Info("external token validation enabled",
			slog.String("jwks_url", c.Config.Auth.JWKSURL),
		)
	}

	c.TokenValidator = middleware.NewValidatorAdapter(auth.NewChainValidator(validators...))
	c.UserResolver = service.NewExternalUserResolver(
		c.UserRepo,
		c.Hasher,
		c.Config.Auth.ProvisionExternalUsers,
		c.Logger,
	)

	return nil
}

// setupServices initializes use cases and the services over them.
func (c *Container) setupServices() {
	c.UpdateTaskUC = taskapp.NewUpdateTaskUseCase(
		c.TaskRepo,
		taskapp.NewDiffEngine(c.Resolver),
		taskapp.NewChangeLogWriter(c.HistoryRepo),
		taskapp.WithEventBus(c.EventBus),
		taskapp.WithMetrics(c.TaskMetrics),
		taskapp.WithLogger(c.Logger),
		taskapp.WithConditionalWrite(c.Config.Tasks.ConditionalUpdate),
	)

	c.TaskService = service.NewTaskService(service.TaskServiceConfig{
		CreateUC:  taskapp.NewCreateTaskUseCase(c.TaskRepo, c.Resolver, c.EventBus, c.Logger),
		UpdateUC:  c.UpdateTaskUC,
		GetUC:     taskapp.NewGetTaskUseCase(c.TaskRepo),
		DeleteUC:  taskapp.NewDeleteTaskUseCase(c.TaskRepo, c.CommentRepo, c.EventBus, c.Logger),
		ListUC:    taskapp.NewListBoardTasksUseCase(c.TaskRepo, c.Resolver, c.UserRepo),
		HistoryUC: taskapp.NewListHistoryUseCase(c.TaskRepo, c.HistoryRepo, c.Config.Tasks.HistoryLimit),
	})

	c.AuthService = service.NewAuthService(service.AuthServiceConfig{
		UserRepo:   c.UserRepo,
		Hasher:     c.Hasher,
		Issuer:     c.Issuer,
		TokenStore: c.TokenStore,
		Logger:     c.Logger,
	})
	c.ProjectService = service.NewProjectService(c.ProjectRepo, c.Resolver, c.Logger)
	c.BoardService = service.NewBoardService(c.BoardRepo, c.Resolver, c.Logger)
	c.CommentService = service.NewCommentService(c.CommentRepo, c.TaskService)

	c.Logger.Debug("services initialized")
}

// setupHTTPHandlers initializes the HTTP and WebSocket handlers.
func (c *Container) setupHTTPHandlers() {
	c.AuthHandler = httphandler.NewAuthHandler(c.AuthService)
	c.ProjectHandler = httphandler.NewProjectHandler(c.ProjectService)
	c.BoardHandler = httphandler.NewBoardHandler(c.BoardService)
	c.TaskHandler = httphandler.NewTaskHandler(c.TaskService)
	c.CommentHandler = httphandler.NewCommentHandler(c.CommentService)

	wsConfig := wshandler.DefaultHandlerConfig()
	wsConfig.ReadBufferSize = c.Config.WebSocket.ReadBufferSize
	wsConfig.WriteBufferSize = c.Config.WebSocket.WriteBufferSize
	wsConfig.Logger = c.Logger
	if origins := c.Config.Server.Origins(); len(origins) > 0 {
		wsConfig.CheckOrigin = allowOrigins(origins)
	}
	wsConfig.ClientConfig = websocket.DefaultClientConfig()
	wsConfig.ClientConfig.PingInterval = c.Config.WebSocket.PingInterval
	wsConfig.ClientConfig.PongWait = c.Config.WebSocket.PongTimeout
	wsConfig.ClientConfig.MaxMessageSize = wsMaxMessageSize

	c.WSHandler = wshandler.NewHandler(
		c.Hub,
		c.Resolver,
		wshandler.WithHandlerConfig(wsConfig),
		wshandler.WithHandlerLogger(c.Logger),
		wshandler.WithTokenValidator(&resolvingValidator{
			validator: c.TokenValidator,
			users:     c.UserResolver,
		}),
	)

	c.Logger.Debug("http handlers initialized")
}

// setupHealth registers the component checks behind /ready and /health/details.
func (c *Container) setupHealth() {
	c.Health = httpserver.NewChecker(httpserver.DefaultCheckTimeout,
		healthcheck.MongoDB(c.MongoDB),
		healthcheck.Redis(c.Redis),
		healthcheck.Running("websocket_hub", c.Hub, true),
		healthcheck.Running("eventbus", c.EventBus, false),
		healthcheck.DeadLetterQueue(c.DeadLetters),
	)
}

// allowOrigins accepts upgrade requests from the configured origins only.
// Requests without an Origin header come from non-browser clients.
func allowOrigins(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}

// resolvingValidator maps external subjects to local users for clients
// that bypass the auth middleware, such as the board feed.
type resolvingValidator struct {
	validator middleware.TokenValidator
	users     middleware.UserResolver
}

// ValidateToken implements wshandler.TokenValidator.
func (v *resolvingValidator) ValidateToken(ctx context.Context, token string) (*middleware.TokenClaims, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !claims.UserID.IsZero() || v.users == nil {
		return claims, nil
	}

	var userID id.ID
	userID, err = v.users.ResolveUser(ctx, claims.ExternalUserID, claims.Email)
	if err != nil {
		return nil, errors.Join(middleware.ErrInvalidToken, err)
	}
	claims.UserID = userID
	return claims, nil
}

// Close releases resources in reverse order of setup. Every resource is
// closed even when an earlier one fails.
func (c *Container) Close() error {
	c.Logger.Info("closing container resources...")

	var errs []error
	for _, r := range c.closers() {
		if err := r.close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
			continue
		}
		c.Logger.Debug("resource closed", slog.String("resource", r.name))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.Logger.Info("all container resources closed")
	return nil
}

type closer struct {
	name  string
	close func() error
}

// closers lists what has been set up so far; a partially built container
// closes only that.
func (c *Container) closers() []closer {
	var list []closer
	if c.JWKSValidator != nil {
		list = append(list, closer{"jwks validator", c.JWKSValidator.Close})
	}
	if c.Hub != nil {
		list = append(list, closer{"websocket hub", func() error { c.Hub.Stop(); return nil }})
	}
	if c.EventBus != nil {
		list = append(list, closer{"event bus", c.EventBus.Shutdown})
	}
	if c.Redis != nil {
		list = append(list, closer{"redis", c.Redis.Close})
	}
	if c.MongoDB != nil {
		list = append(list, closer{"mongodb", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
			defer cancel()
			return c.MongoDB.Disconnect(ctx)
		}})
	}
	return list
}

// StartEventBus subscribes the broadcaster and logging handler, then starts
// consuming. Subscriptions must exist before Start as the bus listens only on
// channels that have handlers.
func (c *Container) StartEventBus(ctx context.Context) error {
	if c.EventBus == nil {
		return errors.New("event bus not initialized")
	}

	if err := eventbus.Register(c.EventBus, websocket.DefaultEventTypes(), c.LogHandler.AsEventHandler()); err != nil {
		return fmt.Errorf("failed to register logging handler: %w", err)
	}
	if err := c.Broadcaster.Start(ctx); err != nil {
		return fmt.Errorf("failed to start broadcaster: %w", err)
	}

	go func() {
		if err := c.EventBus.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.Logger.Error("event bus error", slog.String("error", err.Error()))
		}
	}()

	c.Logger.InfoContext(ctx, "event bus started")
	return nil
}

// StartHub starts the WebSocket hub.
func (c *Container) StartHub(ctx context.Context) {
	if c.Hub == nil {
		return
	}
	go c.Hub.Run(ctx)
	c.Logger.InfoContext(ctx, "websocket hub started")
}

// IsReady implements httpserver.HealthChecker.
func (c *Container) IsReady(ctx context.Context) bool {
	if c.Health == nil {
		return false
	}
	return c.Health.IsReady(ctx)
}

// GetHealthStatus implements httpserver.HealthChecker.
func (c *Container) GetHealthStatus(ctx context.Context) []httpserver.ComponentStatus {
	if c.Health == nil {
		return []httpserver.ComponentStatus{{
			Name:    "container",
			Status:  httpserver.StatusUnhealthy,
			Message: "not wired",
		}}
	}
	return c.Health.GetHealthStatus(ctx)
}
