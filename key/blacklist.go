package key

import "reflect"

// blacklist holds the never-injectable primitive kinds from spec.md §3:
// integer, float, string, byte-string, plus the unit/none value, the
// open-universal type, and literal-type witnesses.
var blacklistKinds = map[reflect.Kind]bool{
	reflect.Int:     true,
	reflect.Int8:    true,
	reflect.Int16:   true,
	reflect.Int32:   true,
	reflect.Int64:   true,
	reflect.Uint:    true,
	reflect.Uint8:   true,
	reflect.Uint16:  true,
	reflect.Uint32:  true,
	reflect.Uint64:  true,
	reflect.Float32: true,
	reflect.Float64: true,
	reflect.String:  true,
}

// None is the unit/empty value: a type with no meaningful payload, used the
// same way Python's `None`/`NoneType` is blacklisted in spec.md §3.
type None struct{}

// LiteralWitness stands in for Python's literal-type witnesses (e.g.
// `Literal[1]`): a marker type that is never itself a valid dependency.
type LiteralWitness struct{}

var (
	noneType    = reflect.TypeOf(None{})
	literalType = reflect.TypeOf(LiteralWitness{})
	byteSlice   = reflect.TypeOf([]byte(nil))
	anyType     = reflect.TypeOf((*any)(nil)).Elem()
)

// isBlacklistedType reports whether t is one of the never-injectable kinds.
func isBlacklistedType(t reflect.Type) bool {
	if t == nil {
		return true
	}
	if t == noneType || t == literalType || t == byteSlice {
		return true
	}
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		// the open-universal type (interface{} / any)
		return true
	}
	return blacklistKinds[t.Kind()]
}

// IsInjectable returns true if k identifies a dependency that may be
// resolved from a container: it is not a blacklisted primitive, the unit
// value, the open-universal type, a literal-type witness, or a marker
// explicitly flagged non-injectable.
func IsInjectable(k Key) bool {
	if k.IsZero() {
		return false
	}
	switch k.kind {
	case KindType:
		return !isBlacklistedType(k.typ)
	case KindFunc, KindMethod:
		return k.fn != 0
	case KindToken:
		return k.tok != nil && !k.tok.nonInjectable
	default:
		return false
	}
}
