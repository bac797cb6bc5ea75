package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Rate limit defaults.
const (
	DefaultRateLimit       = 100
	DefaultRateLimitWindow = time.Minute
	DefaultBurstSize       = 10

	// DefaultRateLimitKeyPrefix namespaces rate limit counters in Redis.
	DefaultRateLimitKeyPrefix = "taskboard:ratelimit:"

	rateLimitMessage = "Too many requests. Please try again later."
)

// RateLimitScope selects what a request is counted against.
type RateLimitScope int

const (
	// ScopeClient counts against the authenticated user, or the IP for
	// anonymous requests.
	ScopeClient RateLimitScope = iota
	// ScopeIP counts against the remote IP only. Use it before Auth runs.
	ScopeIP
	// ScopeEndpoint counts per client and per route, so one busy endpoint
	// does not exhaust the others.
	ScopeEndpoint
)

// Quota is the state of a rate limit window after a hit.
type Quota struct {
	// Count is the number of requests seen in the current window.
	Count int64
	// ResetIn is the time left until the window closes. Zero if unknown.
	ResetIn time.Duration
}

// RateLimitStore counts requests per key in fixed windows.
type RateLimitStore interface {
	// Hit records one request for key. The first hit opens a window of the
	// given length.
	Hit(ctx context.Context, key string, window time.Duration) (Quota, error)
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	Logger *slog.Logger

	// Store is required. Without it the middleware lets everything through.
	Store RateLimitStore

	// Limit is the number of requests allowed per Window.
	Limit  int
	Window time.Duration

	// BurstSize is added on top of Limit.
	BurstSize int

	Scope RateLimitScope

	// KeyFunc overrides Scope when set.
	KeyFunc func(c echo.Context) string

	SkipPaths []string
	Message   string

	// OnLimited replaces the default 429 response.
	OnLimited func(c echo.Context, quota Quota) error
}

// DefaultRateLimitConfig returns a RateLimitConfig with sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Logger:    slog.Default(),
		Limit:     DefaultRateLimit,
		Window:    DefaultRateLimitWindow,
		BurstSize: DefaultBurstSize,
		SkipPaths: []string{"/health", "/ready"},
		Message:   rateLimitMessage,
	}
}

func (config RateLimitConfig) withDefaults() RateLimitConfig {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Limit <= 0 {
		config.Limit = DefaultRateLimit
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimitWindow
	}
	if config.BurstSize < 0 {
		config.BurstSize = 0
	}
	if config.Message == "" {
		config.Message = rateLimitMessage
	}
	if config.KeyFunc == nil {
		config.KeyFunc = config.Scope.key
	}
	return config
}

// key builds the counter key for the request.
func (s RateLimitScope) key(c echo.Context) string {
	client := "ip:" + c.RealIP()
	if s != ScopeIP {
		if userID := GetUserID(c); !userID.IsZero() {
			client = "user:" + userID.String()
		}
	}

	if s == ScopeEndpoint {
		return fmt.Sprintf("endpoint:%s:%s:%s", c.Request().Method, c.Path(), client)
	}
	return client
}

// RateLimit returns a fixed window rate limiting middleware. Store failures
// are logged and the request is allowed.
func RateLimit(config RateLimitConfig) echo.MiddlewareFunc {
	config = config.withDefaults()

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = struct{}{}
	}
	allowed := int64(config.Limit + config.BurstSize)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := skip[req.URL.Path]; ok || config.Store == nil {
				return next(c)
			}

			key := config.KeyFunc(c)
			quota, err := config.Store.Hit(req.Context(), key, config.Window)
			if err != nil {
				config.Logger.ErrorContext(req.Context(), "rate limit store failed",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				return next(c)
			}

			header := c.Response().Header()
			header.Set("X-Ratelimit-Limit", strconv.FormatInt(allowed, 10))
			header.Set("X-Ratelimit-Remaining", strconv.FormatInt(max(allowed-quota.Count, 0), 10))
			if quota.ResetIn > 0 {
				header.Set("X-Ratelimit-Reset", strconv.FormatInt(time.Now().Add(quota.ResetIn).Unix(), 10))
			}

			if quota.Count <= allowed {
				return next(c)
			}

			config.Logger.WarnContext(req.Context(), "rate limit exceeded",
				slog.String("key", key),
				slog.Int64("count", quota.Count),
				slog.Int64("limit", allowed),
				slog.String("path", req.URL.Path),
			)

			if config.OnLimited != nil {
				return config.OnLimited(c, quota)
			}
			return tooManyRequests(c, config.Message, quota.ResetIn)
		}
	}
}

// RateLimitByIP limits by remote IP regardless of authentication.
func RateLimitByIP(config RateLimitConfig) echo.MiddlewareFunc {
	config.Scope = ScopeIP
	config.KeyFunc = nil
	return RateLimit(config)
}

// RateLimitByEndpoint limits each client separately on every route.
func RateLimitByEndpoint(config RateLimitConfig) echo.MiddlewareFunc {
	config.Scope = ScopeEndpoint
	config.KeyFunc = nil
	return RateLimit(config)
}

func tooManyRequests(c echo.Context, message string, retryAfter time.Duration) error {
	seconds := int64(retryAfter.Round(time.Second) / time.Second)
	if seconds > 0 {
		c.Response().Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	}

	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"success": false,
		"error": map[string]any{
			"code":        "RATE_LIMIT_EXCEEDED",
			"message":     message,
			"retry_after": seconds,
		},
	})
}

// MemoryRateLimitStore keeps windows in process memory. It suits tests and
// single instance deployments.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	count   int64
	closing time.Time
}

// NewMemoryRateLimitStore creates an empty in-memory store.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		windows: make(map[string]*memoryWindow),
		now:     time.Now,
	}
}

// Hit implements RateLimitStore.
func (s *MemoryRateLimitStore) Hit(_ context.Context, key string, window time.Duration) (Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.closing) {
		w = &memoryWindow{closing: now.Add(window)}
		s.windows[key] = w
	}
	w.count++

	return Quota{Count: w.count, ResetIn: w.closing.Sub(now)}, nil
}

// Reset drops every window.
func (s *MemoryRateLimitStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.windows)
}

// RedisRateLimitStore shares windows between API instances through Redis.
type RedisRateLimitStore struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisRateLimitStore creates a Redis store. An empty prefix uses
// DefaultRateLimitKeyPrefix.
func NewRedisRateLimitStore(client redis.Cmdable, keyPrefix string) *RedisRateLimitStore {
	if keyPrefix == "" {
		keyPrefix = DefaultRateLimitKeyPrefix
	}
	return &RedisRateLimitStore{client: client, keyPrefix: keyPrefix}
}

// Hit increments the counter and opens the window in one transaction, so a
// counter never outlives its window.
func (s *RedisRateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (Quota, error) {
	fullKey := s.keyPrefix + key

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, window)
		pttl = pipe.PTTL(ctx, fullKey)
		return nil
	})
	if err != nil {
		return Quota{}, fmt.Errorf("rate limit hit %s: %w", key, err)
	}

	quota := Quota{Count: incr.Val()}
	if ttl := pttl.Val(); ttl > 0 {
		quota.ResetIn = ttl
	}
	return quota, nil
}
