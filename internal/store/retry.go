package store

import (
	"context"
	"errors"
)

// RetryOnConflict runs fn until it succeeds, fails with anything other than
// ErrConflict, or has been tried attempts times. fn must reload the state
// it works on each time it is called.
func RetryOnConflict(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); !errors.Is(err, ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
