package httphandler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/user"
	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
	"github.com/lllypuk/taskboard/internal/middleware"
)

// RegisterRequest represents the register request body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the refresh and logout request body.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse represents an issued token pair.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	TokenResponse

	User UserDTO `json:"user"`
}

// UserDTO represents user data in API responses. The password hash is never exposed.
type UserDTO struct {
	ID        id.ID     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthService defines the interface for authentication operations.
// Declared on the consumer side per project guidelines.
type AuthService interface {
	// Register creates an account.
	Register(ctx context.Context, name, email, password string) (*user.User, error)

	// Login checks credentials and issues a token pair.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Refresh exchanges a refresh token for a new pair; the old one is revoked.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	// Logout revokes a refresh token.
	Logout(ctx context.Context, refreshToken string) error

	// Me returns the authenticated user.
	Me(ctx context.Context, userID id.ID) (*user.User, error)
}

// TokenPair contains an access and a refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	Tokens TokenPair
	User   *user.User
}

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers auth routes with the router.
func (h *AuthHandler) RegisterRoutes(r *httpserver.Router) {
	// Public routes (no auth required)
	r.Public().POST("/auth/register", h.Register)
	r.Public().POST("/auth/login", h.Login)
	r.Public().POST("/auth/refresh", h.Refresh)
	r.Public().POST("/auth/logout", h.Logout)

	// Authenticated routes
	r.Auth().GET("/auth/me", h.Me)
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	usr, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, ToUserDTO(usr))
}

// Login handles POST /api/v1/auth/login.
// Returns access + refresh tokens.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	if req.Email == "" || req.Password == "" {
		return httpserver.RespondErrorWithCode(
			c,
			http.StatusBadRequest,
			"VALIDATION_ERROR",
			"Email and password are required",
		)
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, LoginResponse{
		TokenResponse: toTokenResponse(result.Tokens),
		User:          ToUserDTO(result.User),
	})
}

// Refresh handles POST /api/v1/auth/refresh.
// Rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	if req.RefreshToken == "" {
		return httpserver.RespondErrorWithCode(
			c,
			http.StatusBadRequest,
			"VALIDATION_ERROR",
			"Refresh token is required",
		)
	}

	tokens, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, toTokenResponse(*tokens))
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return respondInvalidBody(c)
	}

	if req.RefreshToken == "" {
		return httpserver.RespondErrorWithCode(
			c,
			http.StatusBadRequest,
			"VALIDATION_ERROR",
			"Refresh token is required",
		)
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondNoContent(c)
}

// Me handles GET /api/v1/auth/me.
// Returns the current authenticated user's information.
func (h *AuthHandler) Me(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID.IsZero() {
		return respondUnauthorized(c)
	}

	usr, err := h.authService.Me(c.Request().Context(), userID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToUserDTO(usr))
}

// ToUserDTO converts a domain User to a UserDTO.
func ToUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:        u.ID(),
		Name:      u.Name(),
		Email:     u.Email(),
		CreatedAt: u.CreatedAt(),
	}
}

func toTokenResponse(p TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(p.ExpiresIn.Seconds()),
	}
}

func respondInvalidBody(c echo.Context) error {
	return httpserver.RespondErrorWithCode(
		c,
		http.StatusBadRequest,
		"INVALID_REQUEST",
		"Invalid request body",
	)
}

func respondUnauthorized(c echo.Context) error {
	return httpserver.RespondErrorWithCode(
		c,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"User not authenticated",
	)
}
