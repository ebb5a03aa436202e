package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]string{"a": "b"}, time.Minute))

	var got map[string]string
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", got["a"])
}

func TestMemoryMissAndDelete(t *testing.T) {
	t.Parallel()

	c := NewMemory()
	ctx := context.Background()

	var got string
	ok, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	t.Parallel()

	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, ok)
}
