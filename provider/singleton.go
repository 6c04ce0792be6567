package provider

import (
	"forge/key"
	"forge/resolver"
)

// Singleton wraps a Factory so its value is produced at most once per
// scope and shared by every subsequent resolution (spec.md §4.2,
// memoisation is keyed by the owning scope's SingletonStore so nested
// scopes get their own copy unless they inherit the parent's store).
type Singleton struct {
	base
	inner *Factory
}

// NewSingleton registers fn as the producer of k, memoised per scope.
func NewSingleton(k key.Key, fn any, args resolver.Arguments, desc resolver.Descriptor) *Singleton {
	return &Singleton{base: base{provides: k}, inner: NewFactory(k, fn, args, desc)}
}

func (si *Singleton) Default() *Singleton {
	si.isDefault = true
	return si
}

func (si *Singleton) Kind() Kind { return KindSingleton }

func (si *Singleton) CanBind(s Scope, k key.Key) bool {
	return si.canBindContainer(s, si.container)
}

func (si *Singleton) Bind(s Scope, k key.Key) (resolver.Resolver, error) {
	plan, err := resolver.Compile(si.inner.fn, si.inner.args, si.inner.desc)
	if err != nil {
		return nil, err
	}
	produce := plan.Build()
	return Chain(produce, Memoize(s.Singletons(), si.provides)), nil
}

func (si *Singleton) Substitute(lower ...Provider) Provider {
	return si
}

func (si *Singleton) SetContainer(c ContainerRef) Provider {
	cp := *si
	cp.container = c
	inner := *si.inner
	inner.container = c
	cp.inner = &inner
	return &cp
}
