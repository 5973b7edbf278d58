// internal/store/memory_test.go
package store

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "cmp:1", []byte(`{"a":1}`), 0))

	got, err := s.Get(ctx, "cmp:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))

	got[0] = 'X'
	again, err := s.Get(ctx, "cmp:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(again))

	require.NoError(t, s.Delete(ctx, "cmp:1"))
	_, err = s.Get(ctx, "cmp:1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore().WithClock(func() time.Time { return now })

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Minute))

	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryStore_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, k := range []string{"cache:a", "cache:b", "thread:a"} {
		require.NoError(t, s.Put(ctx, k, []byte("{}"), 0))
	}

	keys, err := s.List(ctx, "cache:")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"cache:a", "cache:b"}, keys)
}

func TestWithPrefix(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	s := WithPrefix(inner, "compair")

	require.NoError(t, s.Put(ctx, "cache:x", []byte("1"), 0))

	_, err := inner.Get(ctx, "compair:cache:x")
	require.NoError(t, err)

	keys, err := s.List(ctx, "cache:")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache:x"}, keys)

	assert.Same(t, inner, WithPrefix(inner, "").(*MemoryStore))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	assert.Error(t, s.Put(ctx, "k", []byte("v"), 0))
	assert.Error(t, s.Ping(ctx))
}
