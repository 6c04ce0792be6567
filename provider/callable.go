package provider

import (
	"reflect"

	"forge/errors"
	"forge/key"
	"forge/resolver"
)

// CallableMode selects how a Callable-factory's injected arguments sit
// relative to the extra arguments its caller supplies at call time
// (spec.md §4.2).
type CallableMode int

const (
	// ModePrefix places injected arguments before the caller's own — the
	// default. fn declares its injected parameters first, extras last.
	ModePrefix CallableMode = iota
	// ModePartial binds the caller's arguments left-to-right first;
	// injected arguments fill the tail. fn declares its extra parameters
	// first, injected ones last.
	ModePartial
)

// Callable is a provider whose resolved value is itself a callable: the
// consumer gets a closure already curried over its injected dependencies
// and may pass additional arguments of its own at call time. Go's static
// function arity means the split between "injected" and "extra"
// parameters is fixed at registration (injectedArity), not discovered
// per call the way a dynamically-typed signature would allow.
type Callable struct {
	base
	fn            any
	mode          CallableMode
	injectedArity int
	desc          resolver.Descriptor
}

// NewCallable registers fn as the producer of k's curried callable value.
// injectedArity is how many of fn's leading (ModePrefix) or trailing
// (ModePartial) parameters are resolved as dependencies; the rest are
// left open for the caller's own arguments.
func NewCallable(k key.Key, fn any, mode CallableMode, injectedArity int, desc resolver.Descriptor) *Callable {
	return &Callable{base: base{provides: k}, fn: fn, mode: mode, injectedArity: injectedArity, desc: desc}
}

func (c *Callable) Default() *Callable {
	c.isDefault = true
	return c
}

func (c *Callable) Kind() Kind { return KindCallable }

func (c *Callable) CanBind(s Scope, k key.Key) bool {
	return c.canBindContainer(s, c.container)
}

func (c *Callable) Bind(s Scope, k key.Key) (resolver.Resolver, error) {
	fv := reflect.ValueOf(c.fn)
	if fv.Kind() != reflect.Func {
		return nil, errors.Wrap(errors.ErrUnresolvedKey, "callable target %v is not a function", c.fn)
	}
	ft := fv.Type()
	numIn := ft.NumIn()
	from, to := c.injectedRange(numIn)
	desc := c.desc
	mode := c.mode

	return func(ps resolver.ParamScope) (any, error) {
		injected := make([]reflect.Value, 0, to-from)
		for i := from; i < to; i++ {
			pt := ft.In(i)
			dep := key.OfType(pt)
			var v any
			if key.IsInjectable(dep) && ps.IsProvided(dep) {
				r, err := ps.Find(dep)
				if err != nil {
					return nil, err
				}
				rv, err := r(ps)
				if err != nil {
					return nil, err
				}
				v = rv
			} else {
				return nil, errors.WrapKey(errors.ErrUnresolvedKey, pt.String())
			}
			injected = append(injected, resolver.Coerce(v, pt))
		}

		curried := func(extra ...any) (any, error) {
			overrides := map[string]any{}
			var positional []any
			for _, e := range extra {
				if kw, ok := e.(map[string]any); ok {
					for name, v := range kw {
						overrides[name] = v
					}
					continue
				}
				positional = append(positional, e)
			}

			vals := make([]reflect.Value, len(injected))
			copy(vals, injected)
			for i := range vals {
				if name, ok := desc.NameAt(from + i); ok {
					if v, ok := overrides[name]; ok {
						vals[i] = resolver.Coerce(v, vals[i].Type())
					}
				}
			}

			extraVals := make([]reflect.Value, len(positional))
			extraFrom := 0
			if mode == ModePrefix {
				extraFrom = to
			}
			for i, p := range positional {
				extraVals[i] = resolver.Coerce(p, ft.In(extraFrom+i))
			}

			var call []reflect.Value
			if mode == ModePartial {
				call = append(append(call, extraVals...), vals...)
			} else {
				call = append(append(call, vals...), extraVals...)
			}
			return resolver.SplitResults(fv.Call(call))
		}
		return curried, nil
	}, nil
}

// injectedRange returns the [from,to) slice of fn's parameter indices
// that are resolved as dependencies.
func (c *Callable) injectedRange(numIn int) (int, int) {
	if c.mode == ModePartial {
		return numIn - c.injectedArity, numIn
	}
	return 0, c.injectedArity
}

func (c *Callable) Substitute(lower ...Provider) Provider {
	return c
}

func (c *Callable) SetContainer(cont ContainerRef) Provider {
	cp := *c
	cp.container = cont
	return &cp
}
