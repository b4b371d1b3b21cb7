package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "k1", []byte("v1"), 0))

	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "k1", []byte("v1"), 10*time.Millisecond))

	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	time.Sleep(20 * time.Millisecond)

	_, err = s.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreCopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	original := []byte("v1")
	require.NoError(t, s.Set(ctx, "k1", original, 0))
	original[0] = 'X'

	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	got[0] = 'Y'
	again, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), again)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "k1", []byte("v1"), 0))
	require.NoError(t, s.Set(ctx, "k2", []byte("v2"), 0))

	require.NoError(t, s.Delete(ctx, "k1", "absent"))

	_, err := s.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Get(ctx, "k2")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "app:standings:north:table", []byte("a"), 0))
	require.NoError(t, s.Set(ctx, "app:standings:south:table", []byte("b"), 0))
	require.NoError(t, s.Set(ctx, "app:club:c1:node", []byte("c"), 0))

	deleted, err := s.DeletePrefix(ctx, "app:standings:")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = s.Get(ctx, "app:standings:north:table")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "app:club:c1:node")
	require.NoError(t, err)
}

func TestMemoryStorePing(t *testing.T) {
	latency, err := NewMemoryStore().Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), latency)
}
