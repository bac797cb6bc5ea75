package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/taskboard/internal/application/appcore"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

type contextKey string

// ContextKeyUserID holds the authenticated id.ID in the echo context.
const ContextKeyUserID contextKey = "user_id"

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrUserNotFound      = errors.New("user not found")
)

// TokenClaims are the identity facts a validated token carries.
type TokenClaims struct {
	// UserID is zero for tokens from an external provider until resolved.
	UserID id.ID

	ExternalUserID string
	Email          string
	ExpiresAt      time.Time
}

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
}

// UserResolver maps an external identity to a local user.
type UserResolver interface {
	ResolveUser(ctx context.Context, externalID, email string) (id.ID, error)
}

// AuthConfig configures Auth.
type AuthConfig struct {
	Logger         *slog.Logger
	TokenValidator TokenValidator

	// UserResolver is needed only when external tokens are accepted.
	UserResolver UserResolver

	SkipPaths []string

	// AllowAnonymous passes requests without credentials through with no
	// user. Bad credentials are still rejected.
	AllowAnonymous bool

	// QueryTokenParam is read when no Authorization header is sent.
	// Browsers cannot set headers on WebSocket upgrades.
	QueryTokenParam string
}

// DefaultAuthConfig skips the probes and the credential endpoints.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Logger: slog.Default(),
		SkipPaths: []string{
			"/health", "/ready",
			"/api/v1/auth/register", "/api/v1/auth/login",
			"/api/v1/auth/refresh", "/api/v1/auth/logout",
		},
		QueryTokenParam: "token",
	}
}

// Auth authenticates the request and stores the caller in both the echo and
// the request context.
func Auth(config AuthConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = struct{}{}
	}
	a := authenticator{config: config}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			userID, err := a.authenticate(c)
			switch {
			case errors.Is(err, ErrMissingAuthHeader) && config.AllowAnonymous:
				return next(c)
			case err != nil:
				return respondAuthError(c, err)
			}

			c.Set(string(ContextKeyUserID), userID)
			req := c.Request()
			c.SetRequest(req.WithContext(appcore.WithUserID(req.Context(), userID)))
			return next(c)
		}
	}
}

type authenticator struct {
	config AuthConfig
}

func (a authenticator) authenticate(c echo.Context) (id.ID, error) {
	token, err := bearerToken(c, a.config.QueryTokenParam)
	if err != nil {
		return "", err
	}

	logger := a.config.Logger
	if a.config.TokenValidator == nil {
		logger.Error("token validator not configured")
		return "", ErrInvalidToken
	}

	ctx := c.Request().Context()
	claims, err := a.config.TokenValidator.ValidateToken(ctx, token)
	if err != nil {
		logger.WarnContext(ctx, "token validation failed",
			slog.String("error", err.Error()),
			slog.String("path", c.Request().URL.Path),
			slog.String("remote_ip", c.RealIP()),
		)
		return "", err
	}
	if !claims.UserID.IsZero() {
		return claims.UserID, nil
	}

	if a.config.UserResolver == nil {
		return "", ErrUserNotFound
	}
	userID, err := a.config.UserResolver.ResolveUser(ctx, claims.ExternalUserID, claims.Email)
	if err != nil {
		logger.WarnContext(ctx, "failed to resolve user",
			slog.String("error", err.Error()),
			slog.String("external_id", claims.ExternalUserID),
		)
		return "", ErrUserNotFound
	}
	return userID, nil
}

// bearerToken prefers the Authorization header. A malformed header is an
// error even when a query token is present.
func bearerToken(c echo.Context, queryParam string) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return "", ErrInvalidAuthHeader
		}
		return token, nil
	}
	if queryParam != "" {
		if token := c.QueryParam(queryParam); token != "" {
			return token, nil
		}
	}
	return "", ErrMissingAuthHeader
}

type authFailure struct {
	err     error
	code    string
	message string
}

var authFailures = []authFailure{
	{ErrMissingAuthHeader, "UNAUTHORIZED", "Missing authorization header"},
	{ErrInvalidAuthHeader, "UNAUTHORIZED", "Invalid authorization header format"},
	{ErrTokenExpired, "TOKEN_EXPIRED", "Token has expired"},
	{ErrInvalidToken, "UNAUTHORIZED", "Invalid token"},
	{ErrUserNotFound, "USER_NOT_FOUND", "User not found"},
}

func respondAuthError(c echo.Context, err error) error {
	failure := authFailure{code: "UNAUTHORIZED", message: "Authentication required"}
	for _, f := range authFailures {
		if errors.Is(err, f.err) {
			failure = f
			break
		}
	}
	return c.JSON(http.StatusUnauthorized, errorEnvelope{
		Error: errorBody{Code: failure.code, Message: failure.message},
	})
}

// errorEnvelope mirrors the API error response; this package cannot import
// httpserver.
type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetUserID returns the authenticated caller, or the zero ID.
func GetUserID(c echo.Context) id.ID {
	userID, _ := c.Get(string(ContextKeyUserID)).(id.ID)
	return userID
}
