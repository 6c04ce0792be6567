package provider

import (
	"context"

	"forge/key"
	"forge/resolver"
)

// Wrapper turns one resolver into another, the Go rendering of spec.md
// §4.4's "ordered list of wrapper functions (inner, context) -> outer".
// Singleton (Memoize) and Resource (EnterExitStack + Memoize) are both
// instances of this shape rather than bespoke logic, the same way interceptor.Manager composes named Before/After
// stages around one handler instead of special-casing each concern.
type Wrapper func(inner resolver.Resolver) resolver.Resolver

// Chain applies wrappers to inner in order, outermost-last: the last
// wrapper in the list is the one a caller actually invokes, and it wraps
// everything before it.
func Chain(inner resolver.Resolver, wrappers ...Wrapper) resolver.Resolver {
	out := inner
	for _, w := range wrappers {
		out = w(out)
	}
	return out
}

// Memoize is the Singleton/Resource decorator: at-most-once production
// per key, backed by the scope's SingletonStore (spec.md §4.2, §5).
func Memoize(store *SingletonStore, k key.Key) Wrapper {
	return func(inner resolver.Resolver) resolver.Resolver {
		return func(ps resolver.ParamScope) (any, error) {
			return store.Once(k, func() (any, error) {
				return inner(ps)
			})
		}
	}
}

// EnterExitStack is the Resource decorator: once inner produces a value,
// enrol its teardown on the owning scope before returning it.
func EnterExitStack(s Scope, k key.Key, teardown func(ctx context.Context, value any) error) Wrapper {
	return func(inner resolver.Resolver) resolver.Resolver {
		return func(ps resolver.ParamScope) (any, error) {
			v, err := inner(ps)
			if err != nil || teardown == nil {
				return v, err
			}
			value := v
			if err := s.EnterResource(k, v, func(ctx context.Context) error {
				return teardown(ctx, value)
			}); err != nil {
				return nil, err
			}
			return v, nil
		}
	}
}
