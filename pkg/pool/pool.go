package pool

import (
	"context"
	"fmt"
	"sync"
)

// Result pairs one task's output with its input index so callers can
// restore a deterministic order after the pool drains.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Map runs fn over items with at most workers goroutines and blocks until
// every task finished. Results come back indexed, not ordered; tasks share
// no state, so no ordering between workers is required. A panicking task
// is converted into an error result instead of taking the process down.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	out := make([]Result[R], len(items))
	idx := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				out[i] = run(ctx, i, items[i], fn)
			}
		}()
	}

	for i := range items {
		idx <- i
	}
	close(idx)
	wg.Wait()

	return out
}

func run[T, R any](ctx context.Context, i int, item T, fn func(context.Context, T) (R, error)) (res Result[R]) {
	res.Index = i
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("task %d panicked: %v", i, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		res.Err = err
		return
	}
	res.Value, res.Err = fn(ctx, item)
	return
}
