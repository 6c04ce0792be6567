// forge/exitstack/exitstack.go
// Package exitstack implements C7: a LIFO register of teardown callbacks
// run when a scope closes. It is grounded on laza/di/util.py's
// AbstractExitStack/ExitStack, translated to Go idiom: there is no
// __exit__ protocol, so callbacks are plain functions receiving a
// context.Context, and "async" callbacks are simply callbacks that may
// block — Go has no separate coroutine type, so suspension is ordinary
// goroutine blocking rather than an awaited callback (see SPEC_FULL.md §5
// REDESIGN FLAGS).
package exitstack

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Callback is a teardown function enrolled on a Stack. It receives the
// context the scope was closed with.
type Callback func(ctx context.Context) error

// TeardownError collects every error raised while unwinding a Stack, in
// the order they occurred, preserving each one rather than only the last
// — the Go analogue of the original's exception-context chaining
// (laza/di/util.py _fix_exception_context): a later teardown failure must
// not erase an earlier one.
type TeardownError struct {
	Errs []error
}

func (e *TeardownError) Error() string {
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("forge: %d teardown callback(s) failed: %s", len(e.Errs), strings.Join(parts, "; "))
}

// Unwrap exposes the first failure so errors.Is/As still finds it.
func (e *TeardownError) Unwrap() error {
	if len(e.Errs) == 0 {
		return nil
	}
	return e.Errs[0]
}

// Stack is a LIFO register of teardown callbacks. It is safe for
// concurrent Push; only the first Close runs the callbacks.
type Stack struct {
	mu      sync.Mutex
	entries []Callback
	closed  bool
}

// New creates an empty Stack.
func New() *Stack {
	return &Stack{}
}

// Push enrolls a teardown callback. Equivalent to laza's ExitStack.push
// for a plain callback (not a context manager, which forge providers
// don't have — Resource providers pass their teardown directly).
func (s *Stack) Push(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, cb)
}

// Enter runs enter, and if it succeeds, enrolls exit as a teardown
// callback before returning enter's result — the Go analogue of
// AbstractExitStack.enter (entering a context manager and pushing its
// __exit__).
func (s *Stack) Enter(ctx context.Context, enter func(ctx context.Context) (any, error), exit Callback) (any, error) {
	v, err := enter(ctx)
	if err != nil {
		return nil, err
	}
	s.Push(exit)
	return v, nil
}

// Len reports how many callbacks are currently enrolled.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close unwinds the stack in LIFO order, running every callback even if
// earlier ones fail, and returns a *TeardownError aggregating all
// failures (nil if none). Close is idempotent: calling it twice runs
// nothing the second time.
func (s *Stack) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	entries := s.entries
	s.entries = nil
	s.closed = true
	s.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		if err := entries[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &TeardownError{Errs: errs}
}
