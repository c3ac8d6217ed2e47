package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *StateStore {
	t.Helper()
	addr := os.Getenv("ASSETKIT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ASSETKIT_TEST_REDIS_ADDR not set")
	}
	rdb, err := Connect(context.Background(), Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewStateStore(rdb, "assetkit-test:"+uuid.NewString()+":", "global")
	t.Cleanup(func() { _ = s.Clear(context.Background()) })
	return s
}

func TestStateStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "score", 42.0))
	require.NoError(t, s.Set(ctx, "player", map[string]any{"name": "ada", "tags": []any{"a", "b"}}))

	v, ok, err := s.Get(ctx, "score")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42.0, v)

	v, _, err = s.Get(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ada", "tags": []any{"a", "b"}}, v)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"player", "score"}, keys)

	deleted, err := s.Delete(ctx, "score")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.Delete(ctx, "score")
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, s.Clear(ctx))
	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestConnect_RequiresAddress(t *testing.T) {
	_, err := Connect(context.Background(), Options{})
	assert.Error(t, err)
}
