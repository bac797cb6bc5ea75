package httpserver

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lllypuk/taskboard/internal/middleware"
)

// DefaultAPIPrefix is where the versioned JSON API is mounted.
const DefaultAPIPrefix = "/api/v1"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger *slog.Logger

	// AuthMiddleware guards the Auth group. Without it the group is public.
	AuthMiddleware echo.MiddlewareFunc

	// Optional global middleware, run after request logging.
	RateLimitMiddleware echo.MiddlewareFunc
	MetricsMiddleware   echo.MiddlewareFunc

	CORSConfig     middleware.CORSConfig
	LoggingConfig  middleware.LoggingConfig
	RecoveryConfig middleware.RecoveryConfig

	APIPrefix string
}

// DefaultRouterConfig returns a RouterConfig with sensible defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Logger:         slog.Default(),
		CORSConfig:     middleware.DefaultCORSConfig(),
		LoggingConfig:  middleware.DefaultLoggingConfig(),
		RecoveryConfig: middleware.DefaultRecoveryConfig(),
		APIPrefix:      DefaultAPIPrefix,
	}
}

// chain lists the global middleware outermost first. Recovery wraps
// everything, metrics observe the status logging rendered, and the limiter
// runs before Auth so rejected clients never reach token validation.
func (c RouterConfig) chain() []echo.MiddlewareFunc {
	chain := []echo.MiddlewareFunc{
		middleware.RecoveryWithConfig(c.RecoveryConfig),
		middleware.CORS(c.CORSConfig),
		middleware.Logging(c.LoggingConfig),
	}
	for _, optional := range []echo.MiddlewareFunc{c.MetricsMiddleware, c.RateLimitMiddleware} {
		if optional != nil {
			chain = append(chain, optional)
		}
	}
	return chain
}

// Router owns the Echo instance and its two route groups under APIPrefix.
type Router struct {
	echo   *echo.Echo
	logger *slog.Logger

	public *echo.Group
	auth   *echo.Group
}

// NewRouter installs the error handler, the global middleware and the route
// groups on e.
func NewRouter(e *echo.Echo, config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.APIPrefix == "" {
		config.APIPrefix = DefaultAPIPrefix
	}

	e.HTTPErrorHandler = ErrorHandler
	e.Use(config.chain()...)

	r := &Router{
		echo:   e,
		logger: config.Logger,
		public: e.Group(config.APIPrefix),
	}
	if config.AuthMiddleware != nil {
		r.auth = r.public.Group("", config.AuthMiddleware)
	} else {
		r.auth = r.public
		r.logger.Warn("no auth middleware configured, authenticated routes are public")
	}

	return r
}

// Echo returns the underlying Echo instance.
func (r *Router) Echo() *echo.Echo {
	return r.echo
}

// Public is the group for register, login, refresh and the board feed,
// which authenticates itself.
func (r *Router) Public() *echo.Group {
	return r.public
}

// Auth is the group behind AuthMiddleware.
func (r *Router) Auth() *echo.Group {
	return r.auth
}

// RouteRegistrar is implemented by every handler that mounts routes.
type RouteRegistrar interface {
	RegisterRoutes(r *Router)
}

// RegisterAll mounts each registrar in order.
func (r *Router) RegisterAll(registrars ...RouteRegistrar) {
	for _, registrar := range registrars {
		registrar.RegisterRoutes(r)
	}
}

// Routes returns the registered routes ordered by path, then method.
func (r *Router) Routes() []*echo.Route {
	routes := r.echo.Routes()
	slices.SortFunc(routes, func(a, b *echo.Route) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Method, b.Method))
	})
	return routes
}

// PrintRoutes logs every route at debug level.
func (r *Router) PrintRoutes() {
	for _, route := range r.Routes() {
		r.logger.Debug("registered route",
			slog.String("method", route.Method),
			slog.String("path", route.Path),
		)
	}
}

// RegisterMetricsEndpoint serves the metrics of gatherer at /metrics.
// A nil gatherer exposes the default registry.
func (r *Router) RegisterMetricsEndpoint(gatherer prometheus.Gatherer) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
