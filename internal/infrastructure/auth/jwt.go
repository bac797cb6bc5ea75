package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token lifetimes.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultLeeway          = 30 * time.Second
)

const minSecretLength = 16

// TokenIssuerConfig contains configuration for TokenIssuer.
type TokenIssuerConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// IssuedToken is a signed token with its identifiers.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	secret []byte
	config TokenIssuerConfig
	now    func() time.Time
}

// IssuerOption configures a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock sets the time source used for iat, exp and validation.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewTokenIssuer creates a token issuer.
func NewTokenIssuer(config TokenIssuerConfig, opts ...IssuerOption) (*TokenIssuer, error) {
	if len(config.Secret) < minSecretLength {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	if config.Issuer == "" {
		config.Issuer = "taskboard"
	}
	if config.AccessTTL == 0 {
		config.AccessTTL = DefaultAccessTokenTTL
	}
	if config.RefreshTTL == 0 {
		config.RefreshTTL = DefaultRefreshTokenTTL
	}
	if config.Leeway == 0 {
		config.Leeway = DefaultLeeway
	}

	issuer := &TokenIssuer{
		secret: []byte(config.Secret),
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

// RefreshTTL returns the refresh token lifetime.
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.config.RefreshTTL }

// IssueAccessToken signs an access token for the user.
func (i *TokenIssuer) IssueAccessToken(userID, email, name string) (*IssuedToken, error) {
	return i.issue(TokenTypeAccess, userID, i.config.AccessTTL, jwt.MapClaims{
		"email": email,
		"name":  name,
	})
}

// IssueRefreshToken signs a refresh token for the user.
func (i *TokenIssuer) IssueRefreshToken(userID string) (*IssuedToken, error) {
	return i.issue(TokenTypeRefresh, userID, i.config.RefreshTTL, jwt.MapClaims{})
}

func (i *TokenIssuer) issue(tokenType, subject string, ttl time.Duration, claims jwt.MapClaims) (*IssuedToken, error) {
	if subject == "" {
		return nil, ErrMissingSubject
	}

	now := i.now()
	expiresAt := now.Add(ttl)
	tokenID := uuid.NewString()

	claims["iss"] = i.config.Issuer
	claims["sub"] = subject
	claims["iat"] = now.Unix()
	claims["exp"] = expiresAt.Unix()
	claims["jti"] = tokenID
	claims["typ"] = tokenType

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{Token: signed, TokenID: tokenID, ExpiresAt: expiresAt}, nil
}

// Validate verifies an access token.
func (i *TokenIssuer) Validate(_ context.Context, tokenString string) (*TokenClaims, error) {
	return i.parse(tokenString, TokenTypeAccess)
}

// ParseRefreshToken verifies a refresh token.
func (i *TokenIssuer) ParseRefreshToken(tokenString string) (*TokenClaims, error) {
	return i.parse(tokenString, TokenTypeRefresh)
}

func (i *TokenIssuer) parse(tokenString, tokenType string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(i.config.Leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	tc, err := claimsFromMap(claims)
	if err != nil {
		return nil, err
	}
	if tc.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return tc, nil
}

var _ Validator = (*TokenIssuer)(nil)
