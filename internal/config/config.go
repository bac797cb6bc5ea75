// Package config provides configuration loading and validation for the application.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default configuration constants.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "1M"

	DefaultMongoDBTimeout     = 10 * time.Second
	DefaultMongoDBMaxPoolSize = 100

	DefaultRedisPoolSize = 10

	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour // 7 days
	DefaultBcryptCost      = 10

	DefaultWSBufferSize   = 1024
	DefaultWSPingInterval = 30 * time.Second
	DefaultWSPongTimeout  = 60 * time.Second

	DefaultJWTLeeway           = 30 * time.Second
	DefaultJWKSRefreshInterval = 1 * time.Hour

	DefaultRateLimitRequests = 300
	DefaultRateLimitWindow   = time.Minute

	DefaultHistoryLimit = 500

	DefaultEventBusMaxInFlight = 64

	DefaultReplayPollInterval = 30 * time.Second
	DefaultReplayBatchSize    = 50
	DefaultReplayMaxAttempts  = 5
	DefaultReplayMetricsAddr  = ":9091"

	// devJWTSecret is accepted outside production only.
	devJWTSecret = "dev-secret-change-in-production"
)

// Config holds the complete application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	MongoDB   MongoDBConfig   `yaml:"mongodb"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Log       LogConfig       `yaml:"log"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Tasks     TasksConfig     `yaml:"tasks"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	// Name is the application name used in logs and metrics.
	Name string `yaml:"name" env:"APP_NAME"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	BodyLimit       string        `yaml:"body_limit" env:"SERVER_BODY_LIMIT"`           // echo size notation, e.g. 1M
	AllowedOrigins  string        `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"` // comma separated, empty allows all
}

// Address returns the full server address (host:port).
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins splits AllowedOrigins.
func (c ServerConfig) Origins() []string {
	var origins []string
	for o := range strings.SplitSeq(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// MongoDBConfig holds MongoDB connection configuration.
type MongoDBConfig struct {
	URI         string        `yaml:"uri" env:"MONGODB_URI"`
	Database    string        `yaml:"database" env:"MONGODB_DATABASE"`
	Timeout     time.Duration `yaml:"timeout" env:"MONGODB_TIMEOUT"`
	MaxPoolSize uint64        `yaml:"max_pool_size" env:"MONGODB_MAX_POOL_SIZE"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	Issuer          string        `yaml:"issuer" env:"AUTH_ISSUER"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"AUTH_REFRESH_TOKEN_TTL"`
	Leeway          time.Duration `yaml:"leeway" env:"AUTH_LEEWAY"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST"`

	// AllowAnonymous lets requests without a token through; their changes
	// are recorded with a null user.
	AllowAnonymous bool `yaml:"allow_anonymous" env:"AUTH_ALLOW_ANONYMOUS"`

	// JWKSURL enables validation of tokens issued by an external identity provider.
	JWKSURL             string        `yaml:"jwks_url" env:"AUTH_JWKS_URL"`
	JWKSRefreshInterval time.Duration `yaml:"jwks_refresh_interval" env:"AUTH_JWKS_REFRESH_INTERVAL"`

	// ProvisionExternalUsers creates local accounts for unknown external identities.
	ProvisionExternalUsers bool `yaml:"provision_external_users" env:"AUTH_PROVISION_EXTERNAL_USERS"`
}

// EventBusConfig holds event bus configuration.
type EventBusConfig struct {
	ChannelPrefix  string `yaml:"channel_prefix" env:"EVENTBUS_CHANNEL_PREFIX"`
	DeadLetterKey  string `yaml:"dead_letter_key" env:"EVENTBUS_DEAD_LETTER_KEY"`
	MaxDeadLetters int64  `yaml:"max_dead_letters" env:"EVENTBUS_MAX_DEAD_LETTERS"`
	MaxRetries     int    `yaml:"max_retries" env:"EVENTBUS_MAX_RETRIES"`
	MaxInFlight    int    `yaml:"max_in_flight" env:"EVENTBUS_MAX_IN_FLIGHT"`

	// Replay drives the worker that republishes dead letters.
	Replay ReplayConfig `yaml:"replay"`
}

// ReplayConfig holds dead letter replay settings.
type ReplayConfig struct {
	Enabled      bool          `yaml:"enabled" env:"REPLAY_ENABLED"`
	PollInterval time.Duration `yaml:"poll_interval" env:"REPLAY_POLL_INTERVAL"`
	BatchSize    int           `yaml:"batch_size" env:"REPLAY_BATCH_SIZE"`
	MaxAttempts  int           `yaml:"max_attempts" env:"REPLAY_MAX_ATTEMPTS"`

	// MetricsAddr is where the worker serves /metrics. Empty disables it.
	MetricsAddr string `yaml:"metrics_addr" env:"REPLAY_METRICS_ADDR"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"LOG_FORMAT"` // json | text
}

// WebSocketConfig holds WebSocket server configuration.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" env:"WS_READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" env:"WS_WRITE_BUFFER_SIZE"`
	PingInterval    time.Duration `yaml:"ping_interval" env:"WS_PING_INTERVAL"`
	PongTimeout     time.Duration `yaml:"pong_timeout" env:"WS_PONG_TIMEOUT"`
}

// RateLimitConfig holds the per-client request limit.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" env:"RATELIMIT_ENABLED"`
	Requests int           `yaml:"requests" env:"RATELIMIT_REQUESTS"`
	Window   time.Duration `yaml:"window" env:"RATELIMIT_WINDOW"`
}

// TasksConfig holds task update behaviour.
type TasksConfig struct {
	// ConditionalUpdate rejects an update with 409 when the task changed
	// since it was read. Off means last writer wins.
	ConditionalUpdate bool `yaml:"conditional_update" env:"TASKS_CONDITIONAL_UPDATE"`

	// HistoryLimit caps the number of change records returned per task.
	HistoryLimit int `yaml:"history_limit" env:"TASKS_HISTORY_LIMIT"`
}

// Configuration errors.
var (
	ErrConfigNotFound    = errors.New("configuration file not found")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrInvalidDuration   = errors.New("invalid duration format")
	ErrInvalidLogLevel   = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat  = errors.New("invalid log format: must be json or text")
	ErrInsecureJWTSecret = errors.New("auth.jwt_secret must be at least 16 characters")
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "taskboard",
		},
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			BodyLimit:       DefaultBodyLimit,
		},
		MongoDB: MongoDBConfig{
			URI:         "mongodb://localhost:27017",
			Database:    "taskboard",
			Timeout:     DefaultMongoDBTimeout,
			MaxPoolSize: DefaultMongoDBMaxPoolSize,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: DefaultRedisPoolSize,
		},
		Auth: AuthConfig{
			JWTSecret:           devJWTSecret,
			Issuer:              "taskboard",
			AccessTokenTTL:      DefaultAccessTokenTTL,
			RefreshTokenTTL:     DefaultRefreshTokenTTL,
			Leeway:              DefaultJWTLeeway,
			BcryptCost:          DefaultBcryptCost,
			JWKSRefreshInterval: DefaultJWKSRefreshInterval,
		},
		EventBus: EventBusConfig{
			ChannelPrefix:  "events:",
			DeadLetterKey:  "taskboard:dlq",
			MaxDeadLetters: 10000,
			MaxRetries:     3,
			MaxInFlight:    DefaultEventBusMaxInFlight,
			Replay: ReplayConfig{
				Enabled:      true,
				PollInterval: DefaultReplayPollInterval,
				BatchSize:    DefaultReplayBatchSize,
				MaxAttempts:  DefaultReplayMaxAttempts,
				MetricsAddr:  DefaultReplayMetricsAddr,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  DefaultWSBufferSize,
			WriteBufferSize: DefaultWSBufferSize,
			PingInterval:    DefaultWSPingInterval,
			PongTimeout:     DefaultWSPongTimeout,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: DefaultRateLimitRequests,
			Window:   DefaultRateLimitWindow,
		},
		Tasks: TasksConfig{
			ConditionalUpdate: false,
			HistoryLimit:      DefaultHistoryLimit,
		},
	}
}

// IsDevelopment reports whether debug logging is on.
func (c *Config) IsDevelopment() bool {
	return strings.ToLower(c.Log.Level) == "debug"
}

// IsProduction reports whether a real signing secret is configured.
func (c *Config) IsProduction() bool {
	return c.Auth.JWTSecret != devJWTSecret && c.Auth.JWTSecret != ""
}
