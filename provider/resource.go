package provider

import (
	"context"

	"forge/key"
	"forge/resolver"
)

// Resource is a Singleton whose produced value owns a teardown action —
// a DB handle, file, connection — enrolled into the owning scope's exit
// stack the first time it is produced (spec.md §4.2, §8 scenario 4). Its
// ordering relative to other resources is the scope's job (LIFO unwind).
type Resource struct {
	base
	inner    *Factory
	teardown func(ctx context.Context, value any) error
}

// NewResource registers fn as the producer of k. teardown may be nil for
// a resource with nothing to release.
func NewResource(k key.Key, fn any, teardown func(ctx context.Context, value any) error, args resolver.Arguments, desc resolver.Descriptor) *Resource {
	return &Resource{base: base{provides: k}, inner: NewFactory(k, fn, args, desc), teardown: teardown}
}

func (r *Resource) Default() *Resource {
	r.isDefault = true
	return r
}

func (r *Resource) Kind() Kind { return KindResource }

func (r *Resource) CanBind(s Scope, k key.Key) bool {
	return r.canBindContainer(s, r.container)
}

func (r *Resource) Bind(s Scope, k key.Key) (resolver.Resolver, error) {
	plan, err := resolver.Compile(r.inner.fn, r.inner.args, r.inner.desc)
	if err != nil {
		return nil, err
	}
	produce := plan.Build()
	// Outermost-last: the exit-stack enrolment runs inside the memoised
	// production, so it fires exactly once, the same call that computed
	// the value (spec.md §4.4 "Decorator order is outermost-last").
	return Chain(produce,
		EnterExitStack(s, r.provides, r.teardown),
		Memoize(s.Singletons(), r.provides),
	), nil
}

func (r *Resource) Substitute(lower ...Provider) Provider {
	return r
}

func (r *Resource) SetContainer(c ContainerRef) Provider {
	cp := *r
	cp.container = c
	inner := *r.inner
	inner.container = c
	cp.inner = &inner
	return &cp
}
