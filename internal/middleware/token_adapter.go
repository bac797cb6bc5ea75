package middleware

import (
	"context"
	"errors"

	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/infrastructure/auth"
)

// ValidatorAdapter adapts auth.Validator to the TokenValidator interface.
// Subjects that are local user ids become UserID; anything else is an
// external identity left for the UserResolver.
type ValidatorAdapter struct {
	validator auth.Validator
}

// NewValidatorAdapter creates a new adapter.
//
// Usage:
//
//	issuer, _ := auth.NewTokenIssuer(config)
//	authConfig := middleware.AuthConfig{
//	    TokenValidator: middleware.NewValidatorAdapter(issuer),
//	}
func NewValidatorAdapter(validator auth.Validator) *ValidatorAdapter {
	if validator == nil {
		panic("token validator is required")
	}
	return &ValidatorAdapter{validator: validator}
}

// ValidateToken validates a token and returns middleware.TokenClaims.
func (a *ValidatorAdapter) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := a.validator.Validate(ctx, token)
	if err != nil {
		return nil, mapTokenError(err)
	}

	tc := &TokenClaims{
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt,
	}
	if userID, parseErr := id.Parse(claims.Subject); parseErr == nil {
		tc.UserID = userID
	} else {
		tc.ExternalUserID = claims.Subject
	}
	return tc, nil
}

// mapTokenError maps auth errors to middleware errors.
func mapTokenError(err error) error {
	if errors.Is(err, auth.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return errors.Join(ErrInvalidToken, err)
}
