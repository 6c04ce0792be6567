package exitstack

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLIFOOrder(t *testing.T) {
	s := New()
	var order []string
	s.Push(func(ctx context.Context) error { order = append(order, "A"); return nil })
	s.Push(func(ctx context.Context) error { order = append(order, "B"); return nil })
	s.Push(func(ctx context.Context) error { order = append(order, "C"); return nil })

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, []string{"C", "B", "A"}, order)
}

func TestFailureInMiddleStillRunsEarlierCallbacks(t *testing.T) {
	s := New()
	var order []string
	s.Push(func(ctx context.Context) error { order = append(order, "A"); return nil })
	s.Push(func(ctx context.Context) error { return errors.New("B failed") })
	s.Push(func(ctx context.Context) error { order = append(order, "C"); return nil })

	err := s.Close(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"C", "A"}, order)

	var te *TeardownError
	require.ErrorAs(t, err, &te)
	assert.Len(t, te.Errs, 1)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := New()
	calls := 0
	s.Push(func(ctx context.Context) error { calls++; return nil })

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestEnterPushesExitOnlyOnSuccess(t *testing.T) {
	s := New()
	torn := false
	_, err := s.Enter(context.Background(), func(ctx context.Context) (any, error) {
		return "value", nil
	}, func(ctx context.Context) error {
		torn = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Close(context.Background()))
	assert.True(t, torn)
}

func TestEnterDoesNotEnrollOnFailure(t *testing.T) {
	s := New()
	_, err := s.Enter(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("enter failed")
	}, func(ctx context.Context) error {
		t.Fatal("exit should not run")
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}
