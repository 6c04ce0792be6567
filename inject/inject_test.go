package inject

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/container"
	"forge/key"
	"forge/scope"
)

type greeter struct{ name string }

func TestWrapPrefixResolvesFromActiveContext(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.TypeKey(&greeter{})
	c.Value(k, &greeter{name: "ada"})

	s := scope.Open(c)
	ctx := scope.WithContext(context.Background(), s)

	fn := func(ctx context.Context, g *greeter, suffix string) (string, error) {
		return g.name + suffix, nil
	}
	wrapped := Wrap(fn, Prefix, 1).(func(context.Context, string) (string, error))

	out, err := wrapped(ctx, "!")
	require.NoError(t, err)
	assert.Equal(t, "ada!", out)

	orig, ok := Unwrap(wrapped)
	require.True(t, ok)
	assert.IsType(t, fn, orig)

	tok, ok := TokenOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, Prefix, tok.Mode)
	assert.Equal(t, 1, tok.InjectedArity)
}

func TestWrapPartialPlacesInjectedLast(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.TypeKey(&greeter{})
	c.Value(k, &greeter{name: "lin"})

	s := scope.Open(c)
	ctx := scope.WithContext(context.Background(), s)

	fn := func(ctx context.Context, prefix string, g *greeter) (string, error) {
		return prefix + g.name, nil
	}
	wrapped := Wrap(fn, Partial, 1).(func(context.Context, string) (string, error))

	out, err := wrapped(ctx, "hi-")
	require.NoError(t, err)
	assert.Equal(t, "hi-lin", out)
}

func TestWrapWithoutActiveContextErrors(t *testing.T) {
	fn := func(ctx context.Context, g *greeter) (string, error) { return g.name, nil }
	wrapped := Wrap(fn, Prefix, 1).(func(context.Context) (string, error))

	_, err := wrapped(context.Background())
	assert.Error(t, err)
}

type handler struct {
	Greeter *greeter `inject:"true"`
	Plain   string
}

func TestStructInjectsTaggedFields(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.TypeKey(&greeter{})
	c.Value(k, &greeter{name: "moss"})

	s := scope.Open(c)
	ctx := scope.WithContext(context.Background(), s)

	h := &handler{Plain: "untouched"}
	require.NoError(t, Struct(ctx, h))

	assert.Equal(t, "moss", h.Greeter.name)
	assert.Equal(t, "untouched", h.Plain)
}

func TestStructErrorsOnUnresolvableField(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	s := scope.Open(c)
	ctx := scope.WithContext(context.Background(), s)

	h := &handler{}
	assert.Error(t, Struct(ctx, h))
}

func TestActivationTokenServesFromTokenWithoutContext(t *testing.T) {
	c, err := container.New(t.Name())
	require.NoError(t, err)
	k := key.TypeKey(&greeter{})
	c.Value(k, &greeter{name: "tok"})

	s := scope.Open(c)
	tok := scope.NewActivationToken()
	tok.Activate(s)
	defer tok.Deactivate()

	got, err := scope.FromToken(tok)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, StructWithScope(got, &handler{}))
}
