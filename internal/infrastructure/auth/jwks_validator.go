package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultRefreshInterval is the JWKS refresh interval.
const DefaultRefreshInterval = 1 * time.Hour

// JWKSValidatorConfig contains configuration for JWKSValidator.
type JWKSValidatorConfig struct {
	JWKSURL         string
	Issuer          string        // optional
	Audience        string        // optional
	Leeway          time.Duration // clock skew tolerance
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// JWKSValidator validates tokens of an external identity provider offline
// against its published key set.
type JWKSValidator struct {
	jwks   keyfunc.Keyfunc
	config JWKSValidatorConfig
	logger *slog.Logger
	cancel context.CancelFunc
}

// NewJWKSValidator fetches the key set once and keeps it refreshed in the background.
func NewJWKSValidator(config JWKSValidatorConfig) (*JWKSValidator, error) {
	if config.JWKSURL == "" {
		return nil, fmt.Errorf("%w: JWKSURL is required", ErrJWKSFetchFailed)
	}
	if config.Leeway == 0 {
		config.Leeway = DefaultLeeway
	}
	if config.RefreshInterval == 0 {
		config.RefreshInterval = DefaultRefreshInterval
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing JWKS validator",
		slog.String("jwks_url", config.JWKSURL),
		slog.Duration("refresh_interval", config.RefreshInterval),
	)

	ctx, cancel := context.WithCancel(context.Background())

	storage, err := jwkset.NewStorageFromHTTP(config.JWKSURL, jwkset.HTTPClientStorageOptions{
		Ctx:             ctx,
		RefreshInterval: config.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("failed to refresh JWKS", slog.Any("error", err))
		},
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	jwks, err := keyfunc.New(keyfunc.Options{
		Ctx:     ctx,
		Storage: storage,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	return &JWKSValidator{
		jwks:   jwks,
		config: config,
		logger: logger,
		cancel: cancel,
	}, nil
}

// Validate validates token and returns claims.
func (v *JWKSValidator) Validate(_ context.Context, tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithLeeway(v.config.Leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if v.config.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc, parserOpts...)
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return claimsFromMap(claims)
}

// Close stops background JWKS refresh.
func (v *JWKSValidator) Close() error {
	v.logger.Info("closing JWKS validator")
	if v.cancel != nil {
		v.cancel()
	}
	return nil
}

var _ Validator = (*JWKSValidator)(nil)
