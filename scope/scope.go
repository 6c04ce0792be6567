// forge/scope/scope.go
// Package scope implements C5: the per-container runtime that caches
// bound providers, owns singleton instances, manages scoped resource
// teardown, and services lookups for in-flight calls. It is grounded on
// core/lifecycle.go's state-tracked manager (adapted into Lifecycle) and
// on di/di.go's resolveSingleton double-checked locking, generalised from
// a fixed provider map into a lazily-populated bindings cache over
// forge/container.
package scope

import (
	"context"
	"sync"

	"forge/container"
	"forge/errors"
	"forge/events"
	"forge/exitstack"
	"forge/key"
	"forge/provider"
	"forge/resolver"
)

// Context is the scope's current activation; the type is the same as
// Scope (spec.md §4.5 draws the two as one running object, distinguished
// only by nesting), kept as an alias so call sites can use whichever name
// reads better.
type Context = Scope

// Scope is a running instantiation of a container graph: a bindings
// cache (key -> bound resolver or missing), a singleton store, and an
// exit stack. A nested Scope shares its parent's already-cached bindings
// by reference but resolves anything new — and memoises any singleton it
// produces — at its own granularity, discarded when it closes (spec.md
// §4.5 "Context nesting").
type Scope struct {
	root      *container.Container
	parent    *Scope
	lifecycle *Lifecycle

	mu       sync.Mutex
	bindings map[key.Key]*bindingEntry

	pubMu sync.Mutex

	singletons *provider.SingletonStore
	exitStack  *exitstack.Stack

	bus *events.Bus
}

// WithEvents attaches a lifecycle event bus to this scope; Nested children
// inherit it. Must be called before Nested() to cover descendants.
func (s *Scope) WithEvents(bus *events.Bus) *Scope {
	s.bus = bus
	s.publishOpened(s.parent != nil)
	return s
}

type bindingEntry struct {
	resolver resolver.Resolver
	err      error
}

// Open enters c, returning its root Scope.
func Open(c *container.Container) *Scope {
	return &Scope{
		root:       c,
		lifecycle:  newLifecycle(),
		bindings:   map[key.Key]*bindingEntry{},
		singletons: provider.NewSingletonStore(),
		exitStack:  exitstack.New(),
	}
}

// Nested opens a child context under s. Resources entered in the child
// tear down when the child closes, independently of the parent; any key
// the child resolves that the parent hasn't already cached gets its own
// binding and, if it is a Singleton/Resource, its own memoised instance.
func (s *Scope) Nested() *Scope {
	child := &Scope{
		root:       s.root,
		parent:     s,
		lifecycle:  newLifecycle(),
		bindings:   map[key.Key]*bindingEntry{},
		singletons: provider.NewSingletonStore(),
		exitStack:  exitstack.New(),
		bus:        s.bus,
	}
	if s.bus != nil {
		child.publishOpened(true)
	}
	return child
}

func (s *Scope) publishOpened(nested bool) {
	s.bus.Publish(context.Background(), events.NewEvent(events.ScopeOpened, events.ScopePayload{
		Container: s.root.Name(),
		Nested:    nested,
	}))
}

// ContainerRef reports the container this scope (or, for a nested
// context, its ultimate root) was opened against.
func (s *Scope) ContainerRef() provider.ContainerRef { return s.root }

// Lock exposes a mutex dedicated to callers needing at-most-once
// semantics beyond what SingletonStore already gives them (spec.md §4.5
// "lock() -> Mutex | None"). It is distinct from the mutex guarding the
// bindings cache so that external use can never deadlock internal reads.
func (s *Scope) Lock() *sync.Mutex { return &s.pubMu }

func (s *Scope) Singletons() *provider.SingletonStore { return s.singletons }

// IsProvided reports whether k would resolve at all — either already
// cached, visible through a parent context, or freshly resolvable from
// the container graph — without actually binding it.
func (s *Scope) IsProvided(k key.Key) bool {
	if e := s.cachedLocally(k); e != nil {
		return e.err == nil
	}
	if s.parent != nil && s.parent.IsProvided(k) {
		return true
	}
	_, err := s.root.Resolve(s, k)
	return err == nil
}

func (s *Scope) cachedLocally(k key.Key) *bindingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindings[k]
}

func (s *Scope) storeLocally(k key.Key, e *bindingEntry) {
	s.mu.Lock()
	s.bindings[k] = e
	s.mu.Unlock()
}

// Find implements the bindings cache's `__missing__` semantics: first
// access resolves the provider, binds it, and memoises the result —
// including negative results, so a second lookup of an unresolvable key
// doesn't re-walk the container graph. A key already cached by the parent
// context is inherited by reference rather than rebound; only the
// immediate parent's cache is consulted.
func (s *Scope) Find(k key.Key) (resolver.Resolver, error) {
	return s.findChain(k, map[key.Key]bool{})
}

// findChain carries the set of keys already visited while resolving one
// top-level Find call. The chain is a plain local value, never shared
// across goroutines, so two unrelated concurrent callers resolving the
// same key for the first time race benignly (spec.md §5) instead of
// tripping a false cycle — only a genuine alias chain that revisits a key
// within this one call is rejected.
func (s *Scope) findChain(k key.Key, chain map[key.Key]bool) (resolver.Resolver, error) {
	if e := s.cachedLocally(k); e != nil {
		return e.resolver, e.err
	}
	if s.parent != nil {
		if e := s.parent.cachedLocally(k); e != nil {
			s.storeLocally(k, e)
			return e.resolver, e.err
		}
	}

	if chain[k] {
		return nil, errors.WrapKey(errors.ErrAliasCycle, k.String())
	}
	chain[k] = true

	p, err := s.root.Resolve(s, k)
	if err != nil {
		s.storeLocally(k, &bindingEntry{err: err})
		return nil, err
	}

	// Alias providers are walked directly through the same chain rather
	// than through Bind, which would re-enter the public Find and lose
	// cycle-tracking for this call.
	if al, ok := p.(interface{ Target() key.Key }); ok {
		r, err := s.findChain(al.Target(), chain)
		e := &bindingEntry{resolver: r, err: err}
		s.storeLocally(k, e)
		return r, err
	}

	r, err := p.Bind(s, k)
	e := &bindingEntry{resolver: r, err: err}
	s.storeLocally(k, e)
	return r, err
}

// Make resolves k to a value under this context.
func (s *Scope) Make(k key.Key) (any, error) {
	r, err := s.Find(k)
	if err != nil {
		s.bus.Publish(context.Background(), events.NewEvent(events.KeyResolved, events.KeyResolvedPayload{Key: k.String(), Err: err}))
		return nil, err
	}
	v, err := r(s)
	s.bus.Publish(context.Background(), events.NewEvent(events.KeyResolved, events.KeyResolvedPayload{Key: k.String(), Err: err}))
	return v, err
}

// Call treats fn as an ad-hoc factory: missing parameters are resolved
// from this context, then fn is invoked.
func (s *Scope) Call(fn any, args resolver.Arguments) (any, error) {
	plan, err := resolver.Compile(fn, args, resolver.Descriptor{})
	if err != nil {
		return nil, err
	}
	return plan.Build()(s)
}

// EnterResource enrols a produced resource's teardown on this context's
// exit stack, LIFO relative to every other resource entered here.
func (s *Scope) EnterResource(k key.Key, value any, teardown func(ctx context.Context) error) error {
	s.exitStack.Push(teardown)
	return nil
}

// Close runs this context's exit stack in LIFO order. Closing a context
// never touches its parent's stack or caches.
func (s *Scope) Close(ctx context.Context) error {
	s.lifecycle.transition(stateClosing)
	err := s.exitStack.Close(ctx)
	s.lifecycle.transition(stateClosed)
	s.bus.Publish(ctx, events.NewEvent(events.ScopeClosed, events.ScopePayload{Container: s.root.Name()}))
	return err
}
