package reference

import (
	"context"
	"errors"
	"fmt"

	"github.com/lllypuk/taskboard/internal/domain/board"
	"github.com/lllypuk/taskboard/internal/domain/errs"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/project"
	"github.com/lllypuk/taskboard/internal/domain/user"
)

// UserFinder looks users up by id.
// Интерфейс объявлен на стороне потребителя.
type UserFinder interface {
	FindByID(ctx context.Context, userID id.ID) (*user.User, error)
}

// BoardFinder looks boards up by id.
type BoardFinder interface {
	FindByID(ctx context.Context, boardID id.ID) (*board.Board, error)
}

// ProjectFinder looks projects up by id.
type ProjectFinder interface {
	FindByID(ctx context.Context, projectID id.ID) (*project.Project, error)
}

// Resolver checks that a candidate identifier is well-formed and points to an
// existing record. It never writes.
type Resolver struct {
	users    UserFinder
	boards   BoardFinder
	projects ProjectFinder
}

// NewResolver creates a Resolver.
func NewResolver(users UserFinder, boards BoardFinder, projects ProjectFinder) *Resolver {
	return &Resolver{
		users:    users,
		boards:   boards,
		projects: projects,
	}
}

// ResolveUser returns the user identified by raw.
func (r *Resolver) ResolveUser(ctx context.Context, raw string) (*user.User, error) {
	return resolve(ctx, raw, r.users.FindByID, ErrInvalidUserID, ErrUserNotFound)
}

// ResolveBoard returns the board identified by raw.
func (r *Resolver) ResolveBoard(ctx context.Context, raw string) (*board.Board, error) {
	return resolve(ctx, raw, r.boards.FindByID, ErrInvalidBoardID, ErrBoardNotFound)
}

// ResolveProject returns the project identified by raw.
func (r *Resolver) ResolveProject(ctx context.Context, raw string) (*project.Project, error) {
	return resolve(ctx, raw, r.projects.FindByID, ErrInvalidProjectID, ErrProjectNotFound)
}

func resolve[T any](
	ctx context.Context,
	raw string,
	find func(context.Context, id.ID) (*T, error),
	invalid, notFound error,
) (*T, error) {
	// 1. Syntactic check before any lookup
	refID, err := id.Parse(raw)
	if err != nil {
		return nil, invalid
	}

	// 2. Lookup
	entity, err := find(ctx, refID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to resolve %s: %w", refID, err)
	}
	if entity == nil {
		return nil, notFound
	}

	return entity, nil
}
