package query

import (
	"context"
	"log/slog"
)

// Mutate runs a write and, only if it succeeds, invalidates the given
// resource families. Writes are never retried.
func Mutate[T any](ctx context.Context, c *Client, fn func(ctx context.Context) (T, error), invalidates ...string) (T, error) {
	result, err := fn(ctx)
	if err != nil {
		c.logger.Debug("Mutation failed", slog.Any("resources", invalidates), slog.Any("error", err))
		return result, err
	}

	c.Invalidate(invalidates...)
	return result, nil
}
