// Package concurrent holds small fan-out helpers over errgroup used
// where a caller has a batch of independent work and wants bounded
// parallelism with first-error semantics.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn over every item with at most limit goroutines. It
// returns the first error; remaining items still run, but with a
// context cancelled by that error.
func ForEach[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) error {
	if len(items) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, item := range items {
		g.Go(func() error {
			return fn(ctx, item)
		})
	}
	return g.Wait()
}

// Collect maps items in parallel, preserving order. On error the
// partial results are discarded.
func Collect[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 1
	}

	out := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
