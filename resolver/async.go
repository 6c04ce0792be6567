package resolver

import (
	"context"
	"sync"
)

// Future is a deferred dependency value. A Resolver may return a *Future
// instead of a materialised value when its provider produces
// asynchronously; the resolver compiled here
// gathers every outstanding Future concurrently before invoking the
// target, preserving positional order — the Go rendering of spec.md
// §4.4's asynchronous closures, and of laza/di/util.py's AwaitValue for
// the (common) case where the value is already available.
type Future struct {
	once sync.Once
	ch   chan asyncResult
}

type asyncResult struct {
	val any
	err error
}

// NewFuture runs fn in its own goroutine and returns a Future for its
// result.
func NewFuture(fn func() (any, error)) *Future {
	f := &Future{ch: make(chan asyncResult, 1)}
	go func() {
		v, err := fn()
		f.ch <- asyncResult{v, err}
	}()
	return f
}

// Completed wraps an already-available value in a Future, the Go
// equivalent of AwaitValue: synchronous dependencies are gathered through
// the same code path as genuinely asynchronous ones.
func Completed(v any) *Future {
	f := &Future{ch: make(chan asyncResult, 1)}
	f.ch <- asyncResult{v, nil}
	return f
}

// Await blocks until the Future resolves or ctx is cancelled.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case r := <-f.ch:
		f.ch <- r // allow repeated Await calls to observe the same result
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// gather awaits every pending Future concurrently and returns their
// values indexed by original slot position, so ordering of positional
// dependencies is preserved even though they were produced concurrently.
// Cancellation of the gather (via the background context) propagates to
// every outstanding Await — pending dependency futures are not awaited
// further once one fails.
func gather(ps ParamScope, pending map[int]*Future) (map[int]any, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type indexed struct {
		i   int
		val any
		err error
	}
	results := make(chan indexed, len(pending))
	for i, f := range pending {
		i, f := i, f
		go func() {
			v, err := f.Await(ctx)
			results <- indexed{i, v, err}
		}()
	}

	out := make(map[int]any, len(pending))
	var firstErr error
	for range pending {
		r := <-results
		if r.err != nil && firstErr == nil {
			firstErr = r.err
			cancel()
		}
		out[r.i] = r.val
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
