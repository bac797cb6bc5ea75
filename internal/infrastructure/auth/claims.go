package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation errors.
var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidClaims   = errors.New("invalid claims")
	ErrMissingSubject  = errors.New("missing subject claim")
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidIssuer   = errors.New("invalid issuer")
	ErrInvalidAudience = errors.New("invalid audience")
	ErrWrongTokenType  = errors.New("wrong token type")
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// Token types carried in the "typ" claim of locally issued tokens.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims represents validated JWT claims.
type TokenClaims struct {
	Subject   string
	Email     string
	Name      string
	TokenID   string
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Validator validates an access token and returns its claims.
type Validator interface {
	Validate(ctx context.Context, tokenString string) (*TokenClaims, error)
}

// ChainValidator tries each validator in order and returns the first success.
type ChainValidator struct {
	validators []Validator
}

// NewChainValidator creates a validator over the non-nil validators given.
func NewChainValidator(validators ...Validator) *ChainValidator {
	chain := &ChainValidator{}
	for _, v := range validators {
		if v != nil {
			chain.validators = append(chain.validators, v)
		}
	}
	return chain
}

// Validate returns the expiry error when any validator reported one, so an
// expired local token is not masked by a foreign signature mismatch.
func (c *ChainValidator) Validate(ctx context.Context, tokenString string) (*TokenClaims, error) {
	if len(c.validators) == 0 {
		return nil, ErrInvalidToken
	}

	var firstErr error
	for _, v := range c.validators {
		claims, err := v.Validate(ctx, tokenString)
		if err == nil {
			return claims, nil
		}
		if errors.Is(err, ErrTokenExpired) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// mapParseError maps jwt parser errors to the package errors.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %w", ErrInvalidIssuer, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %w", ErrInvalidAudience, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
}

// claimsFromMap extracts TokenClaims from raw JWT claims.
func claimsFromMap(claims jwt.MapClaims) (*TokenClaims, error) {
	tc := &TokenClaims{}

	tc.Subject, _ = claims["sub"].(string)
	if tc.Subject == "" {
		return nil, ErrMissingSubject
	}

	tc.Email, _ = claims["email"].(string)
	tc.Name, _ = claims["name"].(string)
	tc.TokenID, _ = claims["jti"].(string)
	tc.TokenType, _ = claims["typ"].(string)

	if iat, ok := claims["iat"].(float64); ok {
		tc.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := claims["exp"].(float64); ok {
		tc.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return tc, nil
}
