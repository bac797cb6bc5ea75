package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/user"
	httphandler "github.com/lllypuk/taskboard/internal/handler/http"
	"github.com/lllypuk/taskboard/internal/infrastructure/auth"
)

// Compile-time assertion that AuthService implements httphandler.AuthService.
var _ httphandler.AuthService = (*AuthService)(nil)

// AuthServiceUserRepository defines the interface for user data access.
// Declared on the consumer side per project guidelines.
type AuthServiceUserRepository interface {
	Create(ctx context.Context, u *user.User) error
	FindByID(ctx context.Context, userID id.ID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues and parses the service's own tokens.
type TokenIssuer interface {
	IssueAccessToken(userID, email, name string) (*auth.IssuedToken, error)
	IssueRefreshToken(userID string) (*auth.IssuedToken, error)
	ParseRefreshToken(token string) (*auth.TokenClaims, error)
	RefreshTTL() time.Duration
}

// RefreshTokenStore tracks live refresh token ids.
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, userID id.ID, tokenID string, ttl time.Duration) error
	CheckRefreshToken(ctx context.Context, userID id.ID, tokenID string) error
	DeleteRefreshToken(ctx context.Context, userID id.ID, tokenID string) error
}

// AuthService implements httphandler.AuthService with local accounts and JWTs.
type AuthService struct {
	users      AuthServiceUserRepository
	hasher     PasswordHasher
	issuer     TokenIssuer
	tokenStore RefreshTokenStore
	logger     *slog.Logger
	now        func() time.Time
}

// AuthServiceConfig contains dependencies for AuthService.
type AuthServiceConfig struct {
	UserRepo   AuthServiceUserRepository
	Hasher     PasswordHasher
	Issuer     TokenIssuer
	TokenStore RefreshTokenStore
	Logger     *slog.Logger
	Now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		users:      cfg.UserRepo,
		hasher:     cfg.Hasher,
		issuer:     cfg.Issuer,
		tokenStore: cfg.TokenStore,
		logger:     logger,
		now:        now,
	}
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*user.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	email, err := user.NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < user.MinPasswordLength {
		return nil, ErrWeakPassword
	}

	if _, findErr := s.users.FindByEmail(ctx, email); findErr == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(findErr, errs.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", findErr)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := user.NewUser(name, email, hash)
	if err != nil {
		return nil, ErrInvalidName
	}

	if createErr := s.users.Create(ctx, newUser); createErr != nil {
		if errors.Is(createErr, errs.ErrAlreadyExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to save user: %w", createErr)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", newUser.ID().String()),
	)

	return newUser, nil
}

// Login checks credentials and issues an access and a refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*httphandler.LoginResult, error) {
	email, err := user.NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if cmpErr := s.hasher.Compare(u.PasswordHash(), password); cmpErr != nil {
		s.logger.WarnContext(ctx, "login failed",
			slog.String("user_id", u.ID().String()),
		)
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", u.ID().String()),
	)

	return &httphandler.LoginResult{Tokens: *tokens, User: u}, nil
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*httphandler.TokenPair, error) {
	userID, tokenID, err := s.parseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if checkErr := s.tokenStore.CheckRefreshToken(ctx, userID, tokenID); checkErr != nil {
		if errors.Is(checkErr, auth.ErrTokenNotFound) {
			s.logger.WarnContext(ctx, "revoked refresh token presented",
				slog.String("user_id", userID.String()),
			)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to check refresh token: %w", checkErr)
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if delErr := s.tokenStore.DeleteRefreshToken(ctx, userID, tokenID); delErr != nil {
		if errors.Is(delErr, auth.ErrTokenNotFound) {
			// Lost a race with another refresh of the same token.
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to revoke refresh token: %w", delErr)
	}

	return s.issuePair(ctx, u)
}

// Logout revokes a refresh token. Unknown and expired tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	userID, tokenID, err := s.parseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil
		}
		return ErrInvalidRefreshToken
	}

	if delErr := s.tokenStore.DeleteRefreshToken(ctx, userID, tokenID); delErr != nil {
		if errors.Is(delErr, auth.ErrTokenNotFound) {
			s.logger.DebugContext(ctx, "refresh token not found during logout",
				slog.String("user_id", userID.String()),
			)
			return nil
		}
		return fmt.Errorf("failed to delete refresh token: %w", delErr)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", userID.String()),
	)
	return nil
}

// Me returns the user behind an access token.
func (s *AuthService) Me(ctx context.Context, userID id.ID) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

func (s *AuthService) parseRefresh(refreshToken string) (id.ID, string, error) {
	claims, err := s.issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", "", err
	}
	userID, err := id.Parse(claims.Subject)
	if err != nil {
		return "", "", auth.ErrInvalidClaims
	}
	if claims.TokenID == "" {
		return "", "", auth.ErrInvalidClaims
	}
	return userID, claims.TokenID, nil
}

func (s *AuthService) issuePair(ctx context.Context, u *user.User) (*httphandler.TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(u.ID().String(), u.Email(), u.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(u.ID().String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	if storeErr := s.tokenStore.StoreRefreshToken(ctx, u.ID(), refresh.TokenID, s.issuer.RefreshTTL()); storeErr != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", storeErr)
	}

	return &httphandler.TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		ExpiresIn:    access.ExpiresAt.Sub(s.now()).Round(time.Second),
	}, nil
}
