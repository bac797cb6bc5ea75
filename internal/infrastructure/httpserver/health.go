// Package httpserver holds the HTTP server, router, response envelope and
// health endpoints shared by the API.
package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Component and overall health states.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
)

// ComponentStatus is the result of one dependency check.
type ComponentStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of every health endpoint.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components,omitempty"`
}

// HealthChecker reports on the service's dependencies. Both methods run with
// the probe request's context.
type HealthChecker interface {
	IsReady(ctx context.Context) bool
	GetHealthStatus(ctx context.Context) []ComponentStatus
}

// HealthEndpoints serves the liveness, readiness and detail probes.
type HealthEndpoints struct {
	checker HealthChecker
}

// NewHealthEndpoints creates the probes. A nil checker is always ready.
func NewHealthEndpoints(checker HealthChecker) *HealthEndpoints {
	return &HealthEndpoints{checker: checker}
}

// Register mounts /health, /ready and /health/details outside the API prefix.
func (h *HealthEndpoints) Register(e *echo.Echo) {
	e.GET("/health", h.live)
	e.GET("/ready", h.ready)
	e.GET("/health/details", h.details)
}

// RegisterHealthEndpointsWithChecker mounts the probes on the router's echo.
func (r *Router) RegisterHealthEndpointsWithChecker(checker HealthChecker) {
	NewHealthEndpoints(checker).Register(r.echo)
}

// live answers as long as the process serves HTTP.
func (h *HealthEndpoints) live(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: StatusHealthy})
}

func (h *HealthEndpoints) ready(c echo.Context) error {
	if h.checker == nil {
		return c.JSON(http.StatusOK, HealthResponse{Status: StatusReady})
	}

	components := h.checker.GetHealthStatus(c.Request().Context())
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: StatusNotReady, Components: components})
		}
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: StatusReady, Components: components})
}

// details reports unhealthy over degraded over healthy.
func (h *HealthEndpoints) details(c echo.Context) error {
	var components []ComponentStatus
	if h.checker != nil {
		components = h.checker.GetHealthStatus(c.Request().Context())
	}

	overall := StatusHealthy
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: StatusUnhealthy, Components: components})
		}
		if comp.Status == StatusDegraded {
			overall = StatusDegraded
		}
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: overall, Components: components})
}

// DefaultCheckTimeout bounds a single component check.
const DefaultCheckTimeout = 2 * time.Second

// ComponentCheck pings one dependency. A failing Critical check makes the
// service not ready; any other failure only degrades it.
type ComponentCheck struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// Checker runs component checks concurrently, each with its own timeout.
type Checker struct {
	checks  []ComponentCheck
	timeout time.Duration
}

var _ HealthChecker = (*Checker)(nil)

// NewChecker creates a checker. A non-positive timeout means DefaultCheckTimeout.
func NewChecker(timeout time.Duration, checks ...ComponentCheck) *Checker {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Checker{checks: checks, timeout: timeout}
}

// IsReady reports whether every critical component responds.
func (ch *Checker) IsReady(ctx context.Context) bool {
	for _, status := range ch.GetHealthStatus(ctx) {
		if status.Status == StatusUnhealthy {
			return false
		}
	}
	return true
}

// GetHealthStatus returns one status per check, in registration order.
func (ch *Checker) GetHealthStatus(ctx context.Context) []ComponentStatus {
	statuses := make([]ComponentStatus, len(ch.checks))

	var wg sync.WaitGroup
	for i, check := range ch.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i] = ch.run(ctx, check)
		}()
	}
	wg.Wait()
	return statuses
}

func (ch *Checker) run(ctx context.Context, check ComponentCheck) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, ch.timeout)
	defer cancel()

	status := ComponentStatus{Name: check.Name, Status: StatusHealthy}
	if err := check.Check(ctx); err != nil {
		status.Status, status.Message = StatusDegraded, err.Error()
		if check.Critical {
			status.Status = StatusUnhealthy
		}
	}
	return status
}
