package provider

import (
	"forge/key"
	"forge/resolver"
)

// Factory calls a plain function to produce a fresh value on every
// resolution; its parameters are themselves resolved as dependencies
// (spec.md §4.2). It never memoises — that's what Singleton wraps it for.
type Factory struct {
	base
	fn   any
	args resolver.Arguments
	desc resolver.Descriptor
}

// NewFactory registers fn as the producer of k. args/desc let callers pin
// positional values or describe parameter names/defaults the way
// reflection alone cannot recover (spec.md §9).
func NewFactory(k key.Key, fn any, args resolver.Arguments, desc resolver.Descriptor) *Factory {
	return &Factory{base: base{provides: k}, fn: fn, args: args, desc: desc}
}

func (f *Factory) Default() *Factory {
	f.isDefault = true
	return f
}

func (f *Factory) Kind() Kind { return KindFactory }

func (f *Factory) CanBind(s Scope, k key.Key) bool {
	return f.canBindContainer(s, f.container)
}

func (f *Factory) Bind(s Scope, k key.Key) (resolver.Resolver, error) {
	plan, err := resolver.Compile(f.fn, f.args, f.desc)
	if err != nil {
		return nil, err
	}
	return plan.Build(), nil
}

func (f *Factory) Substitute(lower ...Provider) Provider {
	return f
}

func (f *Factory) SetContainer(c ContainerRef) Provider {
	cp := *f
	cp.container = c
	return &cp
}
