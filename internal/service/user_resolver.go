package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/user"
	"github.com/lllypuk/taskboard/internal/middleware"
)

// Compile-time assertion that ExternalUserResolver implements middleware.UserResolver.
var _ middleware.UserResolver = (*ExternalUserResolver)(nil)

// ErrExternalUserUnknown is returned when no local account matches an external token.
var ErrExternalUserUnknown = errors.New("no local user for external identity")

// ExternalUserResolver maps identities from an external identity provider
// to local accounts by email. With provisioning on, a first-time caller gets
// an account whose password is random, so it can only sign in through the
// provider.
type ExternalUserResolver struct {
	users     AuthServiceUserRepository
	hasher    PasswordHasher
	provision bool
	logger    *slog.Logger
}

// NewExternalUserResolver creates a resolver.
func NewExternalUserResolver(
	users AuthServiceUserRepository,
	hasher PasswordHasher,
	provision bool,
	logger *slog.Logger,
) *ExternalUserResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExternalUserResolver{
		users:     users,
		hasher:    hasher,
		provision: provision,
		logger:    logger,
	}
}

// ResolveUser returns the local user id for an external subject.
func (r *ExternalUserResolver) ResolveUser(ctx context.Context, externalID, email string) (id.ID, error) {
	email, err := user.NormalizeEmail(email)
	if err != nil {
		return "", fmt.Errorf("%w: token has no usable email", ErrExternalUserUnknown)
	}

	u, err := r.users.FindByEmail(ctx, email)
	if err == nil {
		return u.ID(), nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !r.provision {
		return "", ErrExternalUserUnknown
	}

	hash, err := r.hasher.Hash(uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	name, _, _ := strings.Cut(email, "@")
	u, err = user.NewUser(name, email, hash)
	if err != nil {
		return "", fmt.Errorf("failed to build user: %w", err)
	}

	if createErr := r.users.Create(ctx, u); createErr != nil {
		if errors.Is(createErr, errs.ErrAlreadyExists) {
			// Created concurrently by another request.
			existing, findErr := r.users.FindByEmail(ctx, email)
			if findErr != nil {
				return "", fmt.Errorf("failed to look up user: %w", findErr)
			}
			return existing.ID(), nil
		}
		return "", fmt.Errorf("failed to create user: %w", createErr)
	}

	r.logger.InfoContext(ctx, "provisioned user for external identity",
		slog.String("user_id", u.ID().String()),
		slog.String("external_id", externalID),
	)
	return u.ID(), nil
}
