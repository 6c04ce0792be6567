// forge/key/key.go
// Package key defines what is injectable in a forge container: the Key
// model (C1 of the DI core). A Key identifies a dependency; it classifies
// into concrete types, free-function references, bound-method references,
// and opaque injection tokens, and is blacklisted for a small set of
// never-injectable kinds.
package key

import (
	"fmt"
	"reflect"
)

// Kind classifies a Key.
type Kind int

const (
	// KindType identifies a dependency by its reflect.Type, including
	// parametric (generic) type applications — Go's reflect.Type already
	// distinguishes Foo[int] from Foo[string].
	KindType Kind = iota
	// KindFunc identifies a dependency by a free-function reference.
	KindFunc
	// KindMethod identifies a dependency by a bound-method reference.
	KindMethod
	// KindToken identifies a dependency by an opaque injection token.
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindFunc:
		return "func"
	case KindMethod:
		return "method"
	case KindToken:
		return "token"
	default:
		return "unknown"
	}
}

// Key is anything that can identify a dependency. Keys are comparable and
// hashable so they can be used as map keys; equality is value equality.
type Key struct {
	kind Kind
	typ  reflect.Type
	fn   uintptr
	recv reflect.Type
	name string
	tok  *Token
}

// TypeKey builds a Key from a concrete or parametric type: v's own dynamic
// type, or v itself when v is a reflect.Type. An interface type needs the
// reflect.Type form (see OfType), since a value never has one as its
// dynamic type.
func TypeKey(v any) Key {
	if t, ok := v.(reflect.Type); ok {
		return Key{kind: KindType, typ: t, name: t.String()}
	}
	t := reflect.TypeOf(v)
	return Key{kind: KindType, typ: t, name: t.String()}
}

// OfType is a convenience for building a Key directly from a reflect.Type,
// e.g. key.OfType(reflect.TypeOf((*io.Writer)(nil)).Elem()) for interfaces.
func OfType(t reflect.Type) Key {
	return Key{kind: KindType, typ: t, name: t.String()}
}

// FuncKey identifies a dependency by a free function's entry point.
func FuncKey(fn any) Key {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic("key.FuncKey: value is not a function")
	}
	return Key{kind: KindFunc, fn: v.Pointer(), typ: v.Type(), name: runtimeFuncName(v)}
}

// MethodKey identifies a dependency by a bound method on recv.
func MethodKey(recv any, methodName string) Key {
	rv := reflect.ValueOf(recv)
	m := rv.MethodByName(methodName)
	if !m.IsValid() {
		panic(fmt.Sprintf("key.MethodKey: no method %q on %T", methodName, recv))
	}
	return Key{
		kind: KindMethod,
		fn:   m.Pointer(),
		typ:  m.Type(),
		recv: rv.Type(),
		name: rv.Type().String() + "." + methodName,
	}
}

// TokenKey wraps an injection Token as a Key.
func TokenKey(t *Token) Key {
	return Key{kind: KindToken, tok: t, name: t.name}
}

func runtimeFuncName(v reflect.Value) string {
	return fmt.Sprintf("func(%s)", v.Type().String())
}

// Kind reports which classification this Key belongs to.
func (k Key) Kind() Kind { return k.kind }

// Type returns the underlying reflect.Type for KindType keys, and the nil
// Type otherwise.
func (k Key) Type() reflect.Type {
	if k.kind == KindType {
		return k.typ
	}
	return nil
}

// Token returns the underlying Token for KindToken keys, or nil.
func (k Key) Token() *Token {
	return k.tok
}

// String renders a diagnostic representation of the key.
func (k Key) String() string {
	return k.name
}

// IsZero reports whether k is the zero Key (no kind ever assigned).
func (k Key) IsZero() bool {
	return k.kind == KindType && k.typ == nil && k.tok == nil
}
