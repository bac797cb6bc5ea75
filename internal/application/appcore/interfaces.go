package appcore

import (
	"context"
	"time"
)

// UseCase is one application operation: a command in, a result out.
type UseCase[TCommand any, TResult any] interface {
	Execute(ctx context.Context, cmd TCommand) (TResult, error)
}

// Clock returns the current time. Use cases take one so tests can pin time.
type Clock func() time.Time
