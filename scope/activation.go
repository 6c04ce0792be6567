package scope

import (
	"context"
	"sync"
	"sync/atomic"

	"forge/errors"
)

// ctxKey is the unexported key under which a Scope rides along a
// context.Context, following the standard library's own convention for
// avoiding collisions with other packages' context values.
type ctxKey struct{}

// WithContext returns a copy of ctx carrying s as its active scope.
func WithContext(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext recovers the scope WithContext attached to ctx. It reports
// errors.ErrNoActiveContext if ctx carries none (spec.md §4.6 "current
// context").
func FromContext(ctx context.Context) (*Scope, error) {
	s, ok := ctx.Value(ctxKey{}).(*Scope)
	if !ok || s == nil {
		return nil, errors.ErrNoActiveContext
	}
	return s, nil
}

var activationSeq uint64

// ActivationToken is an explicit handle for associating a live Scope with
// call sites that have no context.Context to thread through — the Go
// stand-in for a thread-local/task-local "current context" (spec.md §4.6),
// since goroutines carry no identity a registry could key on.
type ActivationToken struct {
	id uint64
}

// NewActivationToken creates a fresh, unique token.
func NewActivationToken() *ActivationToken {
	return &ActivationToken{id: atomic.AddUint64(&activationSeq, 1)}
}

var activeScopes sync.Map // map[uint64]*Scope

// Activate associates tok with s until Deactivate is called. Safe to call
// from any goroutine; the association is global to the process, not
// goroutine-local.
func (tok *ActivationToken) Activate(s *Scope) {
	activeScopes.Store(tok.id, s)
}

// Deactivate removes tok's association, if any.
func (tok *ActivationToken) Deactivate() {
	activeScopes.Delete(tok.id)
}

// FromToken recovers the scope last Activate'd against tok.
func FromToken(tok *ActivationToken) (*Scope, error) {
	v, ok := activeScopes.Load(tok.id)
	if !ok {
		return nil, errors.ErrNoActiveContext
	}
	return v.(*Scope), nil
}
