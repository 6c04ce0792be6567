// forge/resolver/resolver.go
// Package resolver implements C4: given a target callable's reflected
// signature and optional partial arguments, it compiles a specialised
// invocation closure that a provider can bind into a scope. It is
// grounded on xdi/providers/util.py's ProviderResolver/BindingsMap split
// (provider lookup vs. per-scope binding) and on the parameter
// classification rules of spec.md §4.4.
package resolver

import (
	"reflect"

	"forge/errors"
	"forge/key"
)

// ParamScope is the minimal view of a live scope that a compiled resolver
// needs: whether a key would resolve at all, and the cached resolver for
// it. It is declared here, not in the scope package, so that resolver has
// no dependency on scope/container/provider — they depend on resolver
// instead (see SPEC_FULL.md §4 for the full acyclic package graph).
type ParamScope interface {
	IsProvided(k key.Key) bool
	Find(k key.Key) (Resolver, error)
}

// Resolver is a specialised, per-factory invocation closure: given a live
// scope, it produces a value or an error. This is the Go rendering of
// spec.md's "specialised closure".
type Resolver func(s ParamScope) (any, error)

// Arguments carries partial, pre-bound arguments supplied at registration
// time (xdi's `Arguments(args, kwargs)`). An entry may be a literal fixed
// value or a key.Marker requesting that the argument be resolved from the
// scope at call time instead of from the target's own parameter type.
type Arguments struct {
	Args   []any
	Kwargs map[string]any
}

// Descriptor names a callable's parameters and supplies usable defaults,
// substituting for Python's runtime keyword names and parameter defaults
// — Go's reflection exposes neither, so descriptors are how a caller
// opts into keyword binding and default-value fallback (spec.md §9
// Design Notes: "require users to declare a dependency descriptor
// alongside each factory" when reflection alone is insufficient).
type Descriptor struct {
	// Names maps positional parameter index to a keyword name, for
	// Kwargs matching and Callable-factory keyword overrides.
	Names []string
	// Defaults supplies a fallback value for positional parameter i when
	// its dependency can't be resolved from the scope and no fixed value
	// was supplied.
	Defaults map[int]any
	// KeywordDefaults supplies fallbacks for named parameters, keyed by
	// the name in Names.
	KeywordDefaults map[string]any
}

func (d Descriptor) nameOf(i int) (string, bool) {
	if i < len(d.Names) && d.Names[i] != "" {
		return d.Names[i], true
	}
	return "", false
}

// Plan is the result of classifying a callable's parameters: what each
// slot needs, produced by Compile and turned into a Resolver by Build.
type Plan struct {
	Func       reflect.Value
	FuncType   reflect.Type
	Slots      []slot
	Variadic   []slot
	Keys       []key.Key
	IsVariadic bool
}

// slot describes how one parameter position will be filled at call time.
type slot struct {
	index     int
	paramType reflect.Type
	name      string // "" for purely positional slots
	fixed     bool
	fixedVal  any
	dep       key.Key
	hasDep    bool
	def       any
	hasDef    bool
}

// Compile introspects fn (a func value) against args/desc and returns a
// Plan describing how to invoke it; the Plan's Keys field records the keys
// fn depends on (for callers that want to pre-validate or visualise
// dependencies).
// It never binds to a particular scope — that happens per-call inside the
// Resolver returned by Plan.Build.
func Compile(fn any, args Arguments, desc Descriptor) (*Plan, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, errors.Wrap(errors.ErrUnresolvedKey, "target %v is not a function", fn)
	}
	ft := fv.Type()
	numIn := ft.NumIn()
	isVariadic := ft.IsVariadic()

	fixedPositional := len(args.Args)

	plan := &Plan{Func: fv, FuncType: ft, IsVariadic: isVariadic}

	lastFixed := numIn
	if isVariadic {
		lastFixed = numIn - 1
	}

	for i := 0; i < lastFixed; i++ {
		pt := ft.In(i)
		s := slot{index: i, paramType: pt}
		if name, ok := desc.nameOf(i); ok {
			s.name = name
		}

		var raw any
		var hasRaw bool
		if i < fixedPositional {
			raw = args.Args[i]
			hasRaw = true
		} else if s.name != "" {
			if v, ok := args.Kwargs[s.name]; ok {
				raw = v
				hasRaw = true
			}
		}

		if hasRaw {
			if key.IsMarker(raw) {
				s.dep = key.KeyOf(raw)
				s.hasDep = true
			} else {
				s.fixed = true
				s.fixedVal = raw
			}
		} else {
			s.dep = key.OfType(pt)
			s.hasDep = key.IsInjectable(s.dep)
		}

		if d, ok := desc.Defaults[i]; ok {
			s.def = d
			s.hasDef = true
		} else if s.name != "" {
			if d, ok := desc.KeywordDefaults[s.name]; ok {
				s.def = d
				s.hasDef = true
			}
		}

		if s.hasDep {
			plan.Keys = append(plan.Keys, s.dep)
		}
		plan.Slots = append(plan.Slots, s)
	}

	if isVariadic {
		elemType := ft.In(numIn - 1).Elem()
		for i := lastFixed; i < fixedPositional; i++ {
			raw := args.Args[i]
			s := slot{index: i, paramType: elemType}
			if key.IsMarker(raw) {
				s.dep = key.KeyOf(raw)
				s.hasDep = true
				plan.Keys = append(plan.Keys, s.dep)
			} else {
				s.fixed = true
				s.fixedVal = raw
			}
			plan.Variadic = append(plan.Variadic, s)
		}
	}

	return plan, nil
}
