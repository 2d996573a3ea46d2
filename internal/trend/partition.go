package trend

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEachPartition calls fn once for every partition index in [0, n) on a
// bounded pool of goroutines. fn must only write results owned by its own
// index. The first error cancels ctx for the remaining calls and is returned.
func ForEachPartition(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
