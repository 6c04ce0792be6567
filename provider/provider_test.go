package provider

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/key"
	"forge/resolver"
)

// fakeScope is a minimal Scope double: every key maps to a fixed
// resolver, and EnterResource records the key rather than wiring the
// teardown into a real exit stack (that lives in the scope package).
type fakeScope struct {
	mu        sync.Mutex
	resolvers map[key.Key]resolver.Resolver
	singles   *SingletonStore
	entered   []key.Key
}

func newFakeScope() *fakeScope {
	return &fakeScope{resolvers: map[key.Key]resolver.Resolver{}, singles: NewSingletonStore()}
}

func (s *fakeScope) provide(k key.Key, v any) {
	s.resolvers[k] = func(resolver.ParamScope) (any, error) { return v, nil }
}

func (s *fakeScope) IsProvided(k key.Key) bool {
	_, ok := s.resolvers[k]
	return ok
}

func (s *fakeScope) Find(k key.Key) (resolver.Resolver, error) {
	r, ok := s.resolvers[k]
	if !ok {
		return nil, assert.AnError
	}
	return r, nil
}

func (s *fakeScope) Make(k key.Key) (any, error) {
	r, err := s.Find(k)
	if err != nil {
		return nil, err
	}
	return r(s)
}

func (s *fakeScope) Lock() *sync.Mutex { return &s.mu }

func (s *fakeScope) Singletons() *SingletonStore { return s.singles }

func (s *fakeScope) EnterResource(k key.Key, value any, teardown func(ctx context.Context) error) error {
	s.entered = append(s.entered, k)
	return nil
}

func (s *fakeScope) Call(fn any, args resolver.Arguments) (any, error) {
	plan, err := resolver.Compile(fn, args, resolver.Descriptor{})
	if err != nil {
		return nil, err
	}
	return plan.Build()(s)
}

func (s *fakeScope) ContainerRef() ContainerRef { return nil }

func TestValueBindReturnsLiteral(t *testing.T) {
	scope := newFakeScope()
	v := NewValue(key.TypeKey(0), 42)
	r, err := v.Bind(scope, v.Provides())
	require.NoError(t, err)

	got, err := r(scope)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestAliasDelegatesToTarget(t *testing.T) {
	scope := newFakeScope()
	target := key.NewToken("writer").Key()
	scope.provide(target, "stdout-writer")

	a := NewAlias(key.NewToken("alias-writer").Key(), target)
	r, err := a.Bind(scope, a.Provides())
	require.NoError(t, err)

	got, err := r(scope)
	require.NoError(t, err)
	assert.Equal(t, "stdout-writer", got)
}

func TestFactoryProducesFreshValueEachCall(t *testing.T) {
	scope := newFakeScope()
	calls := 0
	fn := func() int { calls++; return calls }

	f := NewFactory(key.TypeKey(0), fn, resolver.Arguments{}, resolver.Descriptor{})
	r, err := f.Bind(scope, f.Provides())
	require.NoError(t, err)

	first, err := r(scope)
	require.NoError(t, err)
	second, err := r(scope)
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestSingletonMemoisesAcrossCalls(t *testing.T) {
	scope := newFakeScope()
	calls := 0
	fn := func() int { calls++; return calls }

	si := NewSingleton(key.TypeKey(0), fn, resolver.Arguments{}, resolver.Descriptor{})
	r, err := si.Bind(scope, si.Provides())
	require.NoError(t, err)

	first, err := r(scope)
	require.NoError(t, err)
	second, err := r(scope)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

type fakeConn struct{ closed bool }

func TestResourceEnrollsTeardownExactlyOnce(t *testing.T) {
	scope := newFakeScope()
	fn := func() *fakeConn { return &fakeConn{} }
	teardown := func(ctx context.Context, v any) error {
		v.(*fakeConn).closed = true
		return nil
	}

	res := NewResource(key.TypeKey((*fakeConn)(nil)), fn, teardown, resolver.Arguments{}, resolver.Descriptor{})
	r, err := res.Bind(scope, res.Provides())
	require.NoError(t, err)

	first, err := r(scope)
	require.NoError(t, err)
	second, err := r(scope)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, scope.entered, 1)
}

type BaseURL struct{ V string }
type SuffixConst struct{ V string }
type RetryCount struct{ N int }

func TestCallablePrefixModeInjectsBeforeExtras(t *testing.T) {
	scope := newFakeScope()
	scope.provide(key.TypeKey(BaseURL{}), BaseURL{V: "base-url"})

	fn := func(base BaseURL, suffix string) string { return base.V + "/" + suffix }
	c := NewCallable(key.NewToken("route-builder").Key(), fn, ModePrefix, 1, resolver.Descriptor{})
	r, err := c.Bind(scope, c.Provides())
	require.NoError(t, err)

	v, err := r(scope)
	require.NoError(t, err)
	curried := v.(func(...any) (any, error))

	out, err := curried("users")
	require.NoError(t, err)
	assert.Equal(t, "base-url/users", out)
}

func TestCallablePartialModeBindsExtrasFirst(t *testing.T) {
	scope := newFakeScope()
	scope.provide(key.TypeKey(SuffixConst{}), SuffixConst{V: "suffix-const"})

	fn := func(prefix string, suffix SuffixConst) string { return prefix + "/" + suffix.V }
	c := NewCallable(key.NewToken("route-builder-partial").Key(), fn, ModePartial, 1, resolver.Descriptor{})
	r, err := c.Bind(scope, c.Provides())
	require.NoError(t, err)

	v, err := r(scope)
	require.NoError(t, err)
	curried := v.(func(...any) (any, error))

	out, err := curried("users")
	require.NoError(t, err)
	assert.Equal(t, "users/suffix-const", out)
}

func TestCallableKeywordOverridesInjectedValue(t *testing.T) {
	scope := newFakeScope()
	scope.provide(key.TypeKey(RetryCount{}), RetryCount{N: 3})

	fn := func(retries RetryCount) int { return retries.N }
	c := NewCallable(key.NewToken("retry-runner").Key(), fn, ModePrefix, 1, resolver.Descriptor{Names: []string{"retries"}})
	r, err := c.Bind(scope, c.Provides())
	require.NoError(t, err)

	v, err := r(scope)
	require.NoError(t, err)
	curried := v.(func(...any) (any, error))

	out, err := curried(map[string]any{"retries": RetryCount{N: 9}})
	require.NoError(t, err)
	assert.Equal(t, 9, out)
}
