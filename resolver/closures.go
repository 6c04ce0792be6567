package resolver

import (
	"reflect"

	"forge/errors"
)

// Build compiles this Plan into a Resolver. Dispatch is on has-keyword
// alone — spec.md §4.4 calls for minimising branches per call; forge's two
// paths are buildPositional (the common case: every slot fills the
// argument tuple in order) and buildMixed (some slots also carry a keyword
// name, used when a Descriptor assigns names for Callable-factory override
// semantics). Both paths append any variadic entries after the fixed slots.
func (p *Plan) Build() Resolver {
	if p.hasKeyword() {
		return p.buildMixed()
	}
	return p.buildPositional()
}

func (p *Plan) hasKeyword() bool {
	for _, s := range p.Slots {
		if s.name != "" {
			return true
		}
	}
	return false
}

// resolveSlot fills one slot's value: fixed value, context-resolved
// dependency, default, or (for positional slots only) an unresolved-key
// error — Go's static call arity means a missing positional argument with
// no default cannot be silently dropped the way a dynamically-typed call
// can, so forge fails fast instead of truncating the call (see
// SPEC_FULL.md §5 REDESIGN FLAGS).
func resolveSlot(s slot, ps ParamScope) (any, error) {
	if s.fixed {
		return s.fixedVal, nil
	}
	if s.hasDep && ps.IsProvided(s.dep) {
		r, err := ps.Find(s.dep)
		if err != nil {
			return nil, err
		}
		return r(ps)
	}
	if s.hasDef {
		return s.def, nil
	}
	if s.name != "" {
		// keyword slots may simply be omitted
		return nil, errSkip
	}
	return nil, errors.WrapKey(errors.ErrUnresolvedKey, s.paramType.String())
}

var errSkip = errSkipSentinel{}

type errSkipSentinel struct{}

func (errSkipSentinel) Error() string { return "forge: slot skipped" }

func (p *Plan) buildPositional() Resolver {
	return func(ps ParamScope) (any, error) {
		args := make([]reflect.Value, 0, len(p.Slots)+len(p.Variadic))
		pending := map[int]*Future{}

		for i, s := range p.Slots {
			v, err := resolveSlot(s, ps)
			if err != nil {
				return nil, err
			}
			if f, ok := v.(*Future); ok {
				pending[i] = f
				args = append(args, reflect.Zero(s.paramType))
				continue
			}
			args = append(args, coerce(v, s.paramType))
		}

		varArgs := make([]reflect.Value, len(p.Variadic))
		for i, s := range p.Variadic {
			v, err := resolveSlot(s, ps)
			if err != nil {
				return nil, err
			}
			varArgs[i] = coerce(v, s.paramType)
		}

		if len(pending) > 0 {
			resolved, err := gather(ps, pending)
			if err != nil {
				return nil, err
			}
			for i, v := range resolved {
				args[i] = coerce(v, p.Slots[i].paramType)
			}
		}

		return p.invoke(append(args, varArgs...))
	}
}

func (p *Plan) buildMixed() Resolver {
	// Same resolution rules as buildPositional, but keyword slots that
	// come back errSkip are passed as their type's zero value rather than
	// failing — Go's fixed arity leaves no way to drop the argument, so this
	// is forge's rendering of spec.md's "for keyword kinds it is simply
	// omitted" versus the positional stop-collection rule.
	return func(ps ParamScope) (any, error) {
		args := make([]reflect.Value, len(p.Slots))
		present := make([]bool, len(p.Slots))
		pending := map[int]*Future{}

		for i, s := range p.Slots {
			v, err := resolveSlot(s, ps)
			if err != nil {
				if err == errSkip {
					continue
				}
				return nil, err
			}
			present[i] = true
			if f, ok := v.(*Future); ok {
				pending[i] = f
				continue
			}
			args[i] = coerce(v, s.paramType)
		}

		varArgs := make([]reflect.Value, len(p.Variadic))
		for i, s := range p.Variadic {
			v, err := resolveSlot(s, ps)
			if err != nil {
				return nil, err
			}
			varArgs[i] = coerce(v, s.paramType)
		}

		if len(pending) > 0 {
			resolved, err := gather(ps, pending)
			if err != nil {
				return nil, err
			}
			for i, v := range resolved {
				args[i] = coerce(v, p.Slots[i].paramType)
				present[i] = true
			}
		}

		call := make([]reflect.Value, 0, len(args))
		for i, v := range args {
			if present[i] {
				call = append(call, v)
			} else {
				call = append(call, reflect.Zero(p.Slots[i].paramType))
			}
		}
		return p.invoke(append(call, varArgs...))
	}
}

// NameAt exposes Descriptor's name lookup to other packages (Callable
// needs it to match override kwargs against injected slots).
func (d Descriptor) NameAt(i int) (string, bool) { return d.nameOf(i) }

// Coerce and SplitResults are exported so Callable can assemble a call
// over a dynamically-sized argument list the same way Plan.invoke does.
func Coerce(v any, t reflect.Type) reflect.Value { return coerce(v, t) }

func SplitResults(out []reflect.Value) (any, error) { return splitResults(out) }

func coerce(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t)
	}
	return rv
}

func (p *Plan) invoke(args []reflect.Value) (any, error) {
	out := p.Func.Call(args)
	return splitResults(out)
}

func splitResults(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if isErrorType(last.Type()) {
		var err error
		if !last.IsNil() {
			err, _ = last.Interface().(error)
		}
		if len(out) == 1 {
			return nil, err
		}
		return out[0].Interface(), err
	}
	return out[0].Interface(), nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func isErrorType(t reflect.Type) bool {
	return t.Implements(errorType)
}
