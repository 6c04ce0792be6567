// forge/inject/inject.go
// Package inject implements C6: call-site and struct-field injection for
// code that sits outside a container's own factories — HTTP handlers, CLI
// commands, anything that wants dependencies filled in from whichever
// scope happens to be live without itself being registered as a provider.
// Grounded on the teacher's di.Inject (di/di.go) struct-tag walk, completed
// here to resolve from a live scope instead of a fresh, empty container.
package inject

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"forge/errors"
	"forge/key"
	"forge/resolver"
	"forge/scope"
)

// Mode selects where a Wrap'd function's injected parameters sit relative
// to the ones its caller still supplies directly, mirroring
// provider.CallableMode for the same Go-arity reasons (spec.md §9 Design
// Notes; see provider/callable.go).
type Mode int

const (
	// Prefix: fn declares context.Context first, then injected
	// parameters, then the caller's own extras.
	Prefix Mode = iota
	// Partial: fn declares context.Context first, then the caller's own
	// extras, then injected parameters.
	Partial
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// InjectionToken records how a Wrap'd function was built: fn's original
// type and which parameters Wrap resolves itself. It is the Go analogue
// of CPython's __injection_token__ (spec.md §4.6) — recovered via TokenOf
// instead of an attribute, since a Go func value carries no side table of
// its own.
type InjectionToken struct {
	OriginalType  reflect.Type
	Mode          Mode
	InjectedArity int
}

type wrapEntry struct {
	original any
	token    InjectionToken
}

// wrapRegistry maps a Wrap'd function's code pointer back to what it was
// built from, since reflect.MakeFunc gives no other way to recover it —
// the Go analogue of CPython's __wrapped__ attribute.
var wrapRegistry sync.Map // map[uintptr]wrapEntry

// Wrap adapts fn — whose first parameter must be context.Context — into a
// function value with fn's own externally-visible signature minus the
// injectedArity parameters Wrap resolves from the active scope itself:
// spec.md §4.6's "identical externally-visible signature," built with
// reflect.MakeFunc rather than a fixed `(ctx, ...any)` shape so a caller
// sees exactly the parameters and results fn itself declares for the
// part it must still supply. Prefix resolves the injectedArity
// parameters right after ctx; Partial resolves the trailing
// injectedArity parameters. fn must not be variadic and must declare an
// error as one of its results (the only channel left to report a failed
// resolution through once the wrapper's signature matches fn's own).
//
// The result's dynamic type is a function, recovered by the caller via a
// type assertion to the signature it expects; Unwrap and TokenOf recover
// the original function and its injection metadata.
func Wrap(fn any, mode Mode, injectedArity int) any {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		panic("inject.Wrap: fn must be a function")
	}
	if ft.IsVariadic() {
		panic("inject.Wrap: fn must not be variadic")
	}
	if ft.NumIn() == 0 || !ft.In(0).Implements(ctxType) {
		panic("inject.Wrap: fn's first parameter must be context.Context")
	}

	numIn := ft.NumIn()
	from, to := 1, 1+injectedArity
	if mode == Partial {
		from, to = numIn-injectedArity, numIn
	}

	externalIn := make([]reflect.Type, 0, numIn-injectedArity)
	externalIn = append(externalIn, ft.In(0))
	for i := 1; i < numIn; i++ {
		if i >= from && i < to {
			continue
		}
		externalIn = append(externalIn, ft.In(i))
	}
	externalOut := make([]reflect.Type, ft.NumOut())
	for i := range externalOut {
		externalOut[i] = ft.Out(i)
	}
	wrapperType := reflect.FuncOf(externalIn, externalOut, false)

	impl := func(args []reflect.Value) []reflect.Value {
		ctx := args[0].Interface().(context.Context)
		s, err := scope.FromContext(ctx)
		if err != nil {
			return errorResults(ft, err)
		}

		callArgs := make([]reflect.Value, numIn)
		callArgs[0] = args[0]
		for i := from; i < to; i++ {
			pt := ft.In(i)
			dep := key.OfType(pt)
			if !key.IsInjectable(dep) {
				return errorResults(ft, errors.Wrap(errors.ErrUnresolvedKey, "parameter %d of injected function is not injectable (%s)", i, pt.String()))
			}
			v, err := s.Make(dep)
			if err != nil {
				return errorResults(ft, err)
			}
			callArgs[i] = resolver.Coerce(v, pt)
		}

		extraIdx := 1
		for i := 1; i < numIn; i++ {
			if i >= from && i < to {
				continue
			}
			callArgs[i] = args[extraIdx]
			extraIdx++
		}

		return fv.Call(callArgs)
	}

	wrapped := reflect.MakeFunc(wrapperType, impl)
	wrapRegistry.Store(wrapped.Pointer(), wrapEntry{
		original: fn,
		token: InjectionToken{
			OriginalType:  ft,
			Mode:          mode,
			InjectedArity: injectedArity,
		},
	})
	return wrapped.Interface()
}

// errorResults builds a zero-valued result slice shaped like ft's
// outputs, with err placed in the last result that implements error —
// used when Wrap's impl must report a resolution failure but ft's
// result arity and types are fixed by the original function, not by
// Wrap itself. Panics if ft declares no error result, since that is the
// only channel left to surface the failure through.
func errorResults(ft reflect.Type, err error) []reflect.Value {
	out := make([]reflect.Value, ft.NumOut())
	errIdx := -1
	for i := ft.NumOut() - 1; i >= 0; i-- {
		if ft.Out(i).Implements(errType) {
			errIdx = i
			break
		}
	}
	if errIdx == -1 {
		panic(fmt.Sprintf("inject.Wrap: %v (wrapped function declares no error result)", err))
	}
	for i := range out {
		if i == errIdx {
			ev := reflect.New(ft.Out(i)).Elem()
			if err != nil {
				ev.Set(reflect.ValueOf(err))
			}
			out[i] = ev
			continue
		}
		out[i] = reflect.Zero(ft.Out(i))
	}
	return out
}

// Unwrap recovers the function a Wrap'd value was built from — the Go
// analogue of CPython's __wrapped__. ok is false if w was not produced by
// Wrap.
func Unwrap(w any) (fn any, ok bool) {
	e, ok := lookupWrap(w)
	if !ok {
		return nil, false
	}
	return e.original, true
}

// TokenOf recovers the InjectionToken a Wrap'd value was built with — the
// Go analogue of CPython's __injection_token__. ok is false if w was not
// produced by Wrap.
func TokenOf(w any) (InjectionToken, bool) {
	e, ok := lookupWrap(w)
	if !ok {
		return InjectionToken{}, false
	}
	return e.token, true
}

func lookupWrap(w any) (wrapEntry, bool) {
	v := reflect.ValueOf(w)
	if v.Kind() != reflect.Func {
		return wrapEntry{}, false
	}
	raw, ok := wrapRegistry.Load(v.Pointer())
	if !ok {
		return wrapEntry{}, false
	}
	return raw.(wrapEntry), true
}

// Struct fills every field tagged `inject:"true"` on the struct pointed to
// by ptr, resolving each field's type from ctx's active scope.
func Struct(ctx context.Context, ptr any) error {
	s, err := scope.FromContext(ctx)
	if err != nil {
		return err
	}
	return StructWithScope(s, ptr)
}

// StructWithScope is Struct for callers that already hold the scope (e.g.
// a nested context not yet attached to a context.Context).
func StructWithScope(s *scope.Scope, ptr any) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("inject.Struct: target must be a pointer to struct, got %T", ptr)
	}

	elem := v.Elem()
	t := elem.Type()
	for i := 0; i < elem.NumField(); i++ {
		sf := t.Field(i)
		if tag, ok := sf.Tag.Lookup("inject"); !ok || tag != "true" {
			continue
		}
		field := elem.Field(i)
		if !field.CanSet() {
			return fmt.Errorf("inject.Struct: field %s is not settable (unexported?)", sf.Name)
		}
		val, err := s.Make(key.OfType(sf.Type))
		if err != nil {
			return fmt.Errorf("inject.Struct: field %s: %w", sf.Name, err)
		}
		field.Set(resolver.Coerce(val, sf.Type))
	}
	return nil
}
