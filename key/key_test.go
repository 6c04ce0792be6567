package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type Foo struct{ N int }

func TestTypeKeyEquality(t *testing.T) {
	a := TypeKey(Foo{})
	b := TypeKey(Foo{})
	assert.Equal(t, a, b)
	assert.Equal(t, a.Kind(), KindType)
}

func TestBlacklistedKeysAreNeverInjectable(t *testing.T) {
	assert.False(t, IsInjectable(TypeKey(0)))
	assert.False(t, IsInjectable(TypeKey(0.0)))
	assert.False(t, IsInjectable(TypeKey("")))
	assert.False(t, IsInjectable(TypeKey(None{})))
	assert.False(t, IsInjectable(TypeKey([]byte(nil))))
	assert.False(t, IsInjectable(OfType(anyType)))
}

func TestConcreteTypeIsInjectable(t *testing.T) {
	assert.True(t, IsInjectable(TypeKey(Foo{})))
}

func TestTokensAreUniqueByConstruction(t *testing.T) {
	a := NewToken("writer")
	b := NewToken("writer")
	assert.NotEqual(t, a.Key(), b.Key())
	assert.True(t, IsInjectable(a.Key()))
}

func TestNonInjectableToken(t *testing.T) {
	tok := NewNonInjectableToken("internal")
	assert.False(t, IsInjectable(tok.Key()))
}

func TestMarkerTransparentToDependency(t *testing.T) {
	k := TypeKey(Foo{})
	m := Mark(k)
	assert.True(t, IsMarker(m))
	assert.Equal(t, k, m.Dependency())
	assert.Equal(t, k, KeyOf(m))
	assert.Equal(t, k, KeyOf(k))
}

func TestFuncKeyAndMethodKey(t *testing.T) {
	fn := func() Foo { return Foo{} }
	fk := FuncKey(fn)
	assert.Equal(t, KindFunc, fk.Kind())

	var svc interface{ Get() Foo } = fooService{}
	mk := MethodKey(svc, "Get")
	assert.Equal(t, KindMethod, mk.Kind())
}

type fooService struct{}

func (fooService) Get() Foo { return Foo{} }
