package scanner

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Policy selects when a run without a match terminates.
type Policy int

const (
	// JoinAll reports no match once every attempt has completed.
	JoinAll Policy = iota
	// LastListed reports no match as soon as the attempt for the last item in
	// input order completes negatively, even if earlier attempts are still in
	// flight. Outstanding attempts are cancelled at that point.
	LastListed
)

type Options struct {
	// Workers bounds concurrent attempts; <= 0 runs every item at once.
	Workers int
	Policy  Policy
}

// Result is the single outcome of a run. Index is -1 when nothing matched.
type Result[T any] struct {
	Item    T
	Index   int
	Matched bool
	// Started counts attempts that were actually issued.
	Started int
}

// FirstMatch calls attempt for every item concurrently and returns the first
// item for which attempt reports true. When a run terminates, either on a
// match or by the policy's exhaustion rule, the context passed to attempt is
// cancelled and no further attempts are started. FirstMatch returns only after
// every started attempt has returned.
func FirstMatch[T any](ctx context.Context, items []T, opts Options, attempt func(ctx context.Context, item T) bool) Result[T] {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := Result[T]{Index: -1}
	var (
		once    sync.Once
		mu      sync.Mutex
		started int
	)
	finish := func(r Result[T]) {
		once.Do(func() {
			mu.Lock()
			res.Item, res.Index, res.Matched = r.Item, r.Index, r.Matched
			mu.Unlock()
			cancel()
		})
	}

	var g errgroup.Group
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	last := len(items) - 1
	for i, item := range items {
		if runCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			// The run may have ended while this attempt waited for a slot.
			if runCtx.Err() != nil {
				return nil
			}
			mu.Lock()
			started++
			mu.Unlock()

			if attempt(runCtx, item) {
				finish(Result[T]{Item: item, Index: i, Matched: true})
				return nil
			}
			if opts.Policy == LastListed && i == last {
				finish(Result[T]{Index: -1})
			}
			return nil
		})
	}
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	res.Started = started
	return res
}
