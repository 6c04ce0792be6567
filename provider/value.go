package provider

import (
	"forge/key"
	"forge/resolver"
)

// Value is the simplest provider: it always returns the same literal
// value with no context access (spec.md §4.2).
type Value struct {
	base
	value any
}

// NewValue registers v as the value for k.
func NewValue(k key.Key, v any) *Value {
	return &Value{base: base{provides: k}, value: v}
}

func (v *Value) Default() *Value {
	v.isDefault = true
	return v
}

func (v *Value) Kind() Kind { return KindValue }

func (v *Value) CanBind(s Scope, k key.Key) bool {
	return v.canBindContainer(s, v.container)
}

func (v *Value) Bind(s Scope, k key.Key) (resolver.Resolver, error) {
	val := v.value
	return func(resolver.ParamScope) (any, error) { return val, nil }, nil
}

func (v *Value) Substitute(lower ...Provider) Provider {
	return v
}

func (v *Value) SetContainer(c ContainerRef) Provider {
	cp := *v
	cp.container = c
	return &cp
}
