// Package main provides the API server entry point.
package main

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/taskboard/internal/middleware"
)

// Paths served outside the API prefix that skip request logging, metrics
// and rate limiting.
var infraPaths = []string{"/health", "/ready", "/health/details", "/metrics"}

// SetupRoutes configures all API routes and middleware chains.
func SetupRoutes(c *Container) *httpserver.Router {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	bodyLimit := c.Config.Server.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "1M"
	}
	e.Use(echomw.BodyLimit(bodyLimit))

	routerConfig := httpserver.DefaultRouterConfig()
	routerConfig.Logger = c.Logger
	routerConfig.AuthMiddleware = middleware.Auth(middleware.AuthConfig{
		Logger:         c.Logger,
		TokenValidator: c.TokenValidator,
		UserResolver:   c.UserResolver,
		AllowAnonymous: c.Config.Auth.AllowAnonymous,
	})
	routerConfig.LoggingConfig.Logger = c.Logger
	routerConfig.LoggingConfig.SkipPaths = infraPaths
	routerConfig.RecoveryConfig.Logger = c.Logger
	routerConfig.CORSConfig = routerConfig.CORSConfig.WithOrigins(c.Config.Server.Origins())

	if c.HTTPMetrics != nil {
		routerConfig.RecoveryConfig.Observer = c.HTTPMetrics
		routerConfig.MetricsMiddleware = middleware.Metrics(c.HTTPMetrics, infraPaths...)
	}
	if c.Config.RateLimit.Enabled && c.Redis != nil {
		routerConfig.RateLimitMiddleware = middleware.RateLimitByIP(middleware.RateLimitConfig{
			Logger:    c.Logger,
			Store:     middleware.NewRedisRateLimitStore(c.Redis, ""),
			Limit:     c.Config.RateLimit.Requests,
			Window:    c.Config.RateLimit.Window,
			SkipPaths: infraPaths,
		})
	}

	router := httpserver.NewRouter(e, routerConfig)

	// Container implements httpserver.HealthChecker
	router.RegisterHealthEndpointsWithChecker(c)
	router.RegisterMetricsEndpoint(c.Registry)

	router.RegisterAll(
		c.AuthHandler,
		c.ProjectHandler,
		c.BoardHandler,
		c.TaskHandler,
		c.CommentHandler,
		c.WSHandler,
	)

	// Log all registered routes in debug mode
	if c.Config.IsDevelopment() {
		router.PrintRoutes()
	}

	return router
}
