package corpus

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds one shared corpus fetch.
const DefaultLoadTimeout = 2 * time.Minute

// shareFetch runs fn once per key for all concurrent callers. The fetch runs
// on a context detached from whichever caller started it, bounded by timeout,
// so one caller giving up does not fail the others. Each caller still returns
// as soon as its own ctx is done.
func shareFetch[T any](ctx context.Context, g *singleflight.Group, key string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	detached := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(detached, timeout)
		defer cancel()
		return fn(fctx)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
