package provider

import (
	"forge/key"
	"forge/resolver"
)

// Alias makes one key resolve through another. Binding simply delegates
// to the target key's own resolver in the same scope; a chain of aliases
// that revisits a key is an error, detected by the owning scope's pending
// set at bind time (spec.md §4.2, §9 "Cyclic resolution").
type Alias struct {
	base
	target key.Key
}

// NewAlias registers k as an alias of target.
func NewAlias(k, target key.Key) *Alias {
	return &Alias{base: base{provides: k}, target: target}
}

func (a *Alias) Default() *Alias {
	a.isDefault = true
	return a
}

func (a *Alias) Kind() Kind { return KindAlias }

// Target exposes the aliased key so a scope can walk a chain of aliases
// directly when checking for cycles, without re-entering Bind/Find for
// every hop (see scope.Scope.Find).
func (a *Alias) Target() key.Key { return a.target }

func (a *Alias) CanBind(s Scope, k key.Key) bool {
	return a.canBindContainer(s, a.container)
}

func (a *Alias) Bind(s Scope, k key.Key) (resolver.Resolver, error) {
	target, err := s.Find(a.target)
	if err != nil {
		return nil, err
	}
	return target, nil
}

func (a *Alias) Substitute(lower ...Provider) Provider {
	return a
}

func (a *Alias) SetContainer(c ContainerRef) Provider {
	cp := *a
	cp.container = c
	return &cp
}
