// Package appcore holds the request-scoped values and small contracts shared
// by the use cases.
package appcore

import (
	"context"
	"errors"

	"github.com/lllypuk/taskboard/internal/domain/event"
	"github.com/lllypuk/taskboard/internal/domain/id"
)

type (
	userIDKey        struct{}
	correlationIDKey struct{}
)

var (
	ErrUserIDNotFound        = errors.New("user ID not found in context")
	ErrCorrelationIDNotFound = errors.New("correlation ID not found in context")
)

// WithUserID stores the authenticated caller.
func WithUserID(ctx context.Context, userID id.ID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID returns the authenticated caller. A zero ID counts as missing.
func GetUserID(ctx context.Context) (id.ID, error) {
	if userID, ok := ctx.Value(userIDKey{}).(id.ID); ok && !userID.IsZero() {
		return userID, nil
	}
	return "", ErrUserIDNotFound
}

// ActorID returns the caller, or the zero ID for anonymous requests.
func ActorID(ctx context.Context) id.ID {
	userID, _ := GetUserID(ctx)
	return userID
}

// WithCorrelationID stores the request id that ties logs and events together.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// GetCorrelationID returns the request id set by WithCorrelationID.
func GetCorrelationID(ctx context.Context) (string, error) {
	if correlationID, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return correlationID, nil
	}
	return "", ErrCorrelationIDNotFound
}

// EventMetadata stamps events raised on behalf of actor during this request.
func EventMetadata(ctx context.Context, actor id.ID) event.Metadata {
	correlationID, _ := GetCorrelationID(ctx)
	return event.NewMetadata(actor.String(), correlationID)
}
