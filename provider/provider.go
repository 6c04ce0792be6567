// forge/provider/provider.go
// Package provider implements C2: the provider variants (Alias, Value,
// Factory, Singleton, Resource, Callable) and their common bind/resolve
// protocol. It is grounded on xdi/providers/util.py's ProviderRegistry and
// on the teacher's own Provider struct (di/di.go), generalised from a
// single struct with a Scope enum into a tagged-variant interface per
// spec.md §9's "dynamic typing → tagged variants" design note.
package provider

import (
	"context"
	"sync"

	"forge/key"
	"forge/resolver"
)

// Kind tags which provider variant a Provider is.
type Kind int

const (
	KindAlias Kind = iota
	KindValue
	KindFactory
	KindSingleton
	KindResource
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindAlias:
		return "alias"
	case KindValue:
		return "value"
	case KindFactory:
		return "factory"
	case KindSingleton:
		return "singleton"
	case KindResource:
		return "resource"
	case KindCallable:
		return "callable"
	default:
		return "unknown"
	}
}

// ContainerRef is the minimal view of a Container a Provider needs: its
// identity and inclusion relationship. Declared here (not imported from
// the container package) to keep provider a leaf relative to container —
// container depends on provider, not the reverse.
type ContainerRef interface {
	Name() string
	Includes(other ContainerRef) bool
	Identity() any
}

// Scope is the minimal view of a live scope a Provider needs to bind and
// produce values. It embeds resolver.ParamScope so any concrete Scope
// also satisfies that interface without provider importing it back.
type Scope interface {
	resolver.ParamScope
	Make(k key.Key) (any, error)
	Lock() *sync.Mutex
	Singletons() *SingletonStore
	EnterResource(k key.Key, value any, teardown func(ctx context.Context) error) error
	Call(fn any, args resolver.Arguments) (any, error)
	// ContainerRef reports the container this scope was opened against, so
	// a provider can tell whether its own owning container is visible from
	// it (self or included) before agreeing to bind.
	ContainerRef() ContainerRef
}

// Provider is the common contract every variant implements (spec.md §4.2).
type Provider interface {
	Provides() key.Key
	Kind() Kind
	IsDefault() bool
	Container() ContainerRef
	CanBind(s Scope, k key.Key) bool
	Bind(s Scope, k key.Key) (resolver.Resolver, error)
	Substitute(lower ...Provider) Provider
	SetContainer(c ContainerRef) Provider
}

// base holds the fields every variant shares; each variant embeds it.
type base struct {
	provides  key.Key
	isDefault bool
	container ContainerRef
}

func (b *base) Provides() key.Key       { return b.provides }
func (b *base) IsDefault() bool         { return b.isDefault }
func (b *base) Container() ContainerRef { return b.container }

// canBindContainer implements the common can_bind rule: a provider not
// flagged default can always bind; a default provider can bind only when
// no non-default sibling exists for the same key in the same scope —
// that filtering happens one level up (container.Resolve), so at the
// provider level CanBind just reports whether this provider's container
// is visible from s (self or included).
func (b *base) canBindContainer(s Scope, self ContainerRef) bool {
	if self == nil {
		return true
	}
	root := s.ContainerRef()
	return root == nil || root.Identity() == self.Identity() || root.Includes(self)
}
