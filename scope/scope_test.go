package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/container"
	"forge/events"
	"forge/key"
	"forge/resolver"
)

var (
	noArgs = resolver.Arguments{}
	noDesc = resolver.Descriptor{}
)

func TestMakeResolvesValue(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.NewToken("greeting").Key()
	c.Value(k, "hello")

	s := Open(c)
	v, err := s.Make(k)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestSingletonMemoisedWithinOneScope(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.NewToken("counter").Key()
	calls := 0
	c.Singleton(k, func() int { calls++; return calls }, noArgs, noDesc)

	s := Open(c)
	first, err := s.Make(k)
	require.NoError(t, err)
	second, err := s.Make(k)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestNestedContextGetsOwnSingletonWhenResolvedFirst(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.NewToken("counter").Key()
	calls := 0
	c.Singleton(k, func() int { calls++; return calls }, noArgs, noDesc)

	root := Open(c)
	child := root.Nested()

	childVal, err := child.Make(k)
	require.NoError(t, err)
	rootVal, err := root.Make(k)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.NotEqual(t, childVal, rootVal)
}

func TestNestedContextInheritsAlreadyCachedParentBinding(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.NewToken("counter").Key()
	calls := 0
	c.Singleton(k, func() int { calls++; return calls }, noArgs, noDesc)

	root := Open(c)
	rootVal, err := root.Make(k)
	require.NoError(t, err)

	child := root.Nested()
	childVal, err := child.Make(k)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, rootVal, childVal)
}

type fakeConn struct{ closed bool }

func TestResourceTeardownRunsOnClose(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.NewToken("conn").Key()
	conn := &fakeConn{}
	c.Resource(k, func() *fakeConn { return conn }, func(ctx context.Context, v any) error {
		v.(*fakeConn).closed = true
		return nil
	}, noArgs, noDesc)

	s := Open(c)
	_, err = s.Make(k)
	require.NoError(t, err)
	assert.False(t, conn.closed)

	require.NoError(t, s.Close(context.Background()))
	assert.True(t, conn.closed)
}

func TestAliasCycleIsRejected(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k1 := key.NewToken("a").Key()
	k2 := key.NewToken("b").Key()
	c.Alias(k1, k2)
	c.Alias(k2, k1)

	s := Open(c)
	_, err = s.Make(k1)
	assert.Error(t, err)
}

func TestOpenAndMakePublishLifecycleEvents(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.NewToken("greeting").Key()
	c.Value(k, "hello")

	bus := events.New()
	var names []string
	bus.Subscribe(events.ScopeOpened, func(ctx context.Context, e events.Event) error {
		names = append(names, e.Name())
		return nil
	})
	bus.Subscribe(events.KeyResolved, func(ctx context.Context, e events.Event) error {
		names = append(names, e.Name())
		return nil
	})

	s := Open(c).WithEvents(bus)
	_, err = s.Make(k)
	require.NoError(t, err)

	assert.Contains(t, names, events.ScopeOpened)
	assert.Contains(t, names, events.KeyResolved)
}

func TestUnresolvedKeyErrors(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	s := Open(c)

	_, err = s.Make(key.NewToken("missing").Key())
	assert.Error(t, err)
}

func TestLifecycleTransitionsOpenedToClosed(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	s := Open(c)

	assert.Equal(t, stateOpened, s.lifecycle.State())
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, stateClosed, s.lifecycle.State())

	// closing an already-closed scope is a no-op, not an error.
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, stateClosed, s.lifecycle.State())
}
