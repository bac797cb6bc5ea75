package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefaultCORSMaxAge is how long browsers may cache a preflight (10 minutes).
const DefaultCORSMaxAge = 600

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	// AllowOrigins lists the origins that may call the API. "*" allows any
	// origin, in which case credentials are never allowed.
	AllowOrigins []string

	AllowMethods []string
	AllowHeaders []string

	// ExposeHeaders are readable by browser clients.
	ExposeHeaders []string

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig allows any origin to call the JSON API without cookies.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			RequestIDHeader,
		},
		ExposeHeaders: []string{
			RequestIDHeader,
			"X-Ratelimit-Limit",
			"X-Ratelimit-Remaining",
			"X-Ratelimit-Reset",
			"Retry-After",
		},
		MaxAge: DefaultCORSMaxAge,
	}
}

// WithOrigins restricts the policy to origins. An empty list keeps the
// wildcard.
func (c CORSConfig) WithOrigins(origins []string) CORSConfig {
	if len(origins) > 0 {
		c.AllowOrigins = origins
	}
	return c
}

// allowsCredentials reports whether the policy names its origins explicitly.
func (c CORSConfig) allowsCredentials() bool {
	if len(c.AllowOrigins) == 0 {
		return false
	}
	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			return false
		}
	}
	return true
}

// CORS returns a CORS middleware with the given configuration. Credentials are
// allowed only for explicit origins.
func CORS(config CORSConfig) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     config.AllowOrigins,
		AllowMethods:     config.AllowMethods,
		AllowHeaders:     config.AllowHeaders,
		AllowCredentials: config.allowsCredentials(),
		ExposeHeaders:    config.ExposeHeaders,
		MaxAge:           config.MaxAge,
	})
}
