package memory

import (
	"context"
	"staybook/pkg/docstore"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Set(ctx, "hotelBookings/u1/k1", map[string]any{"hotel_id": "H1", "price_per_night": 100}))
	require.NoError(t, s.Set(ctx, "hotelBookings/u2/k2", map[string]any{"hotel_id": "H2"}))

	snap, err := s.Get(ctx, "hotelBookings")
	require.NoError(t, err)
	require.True(t, snap.Exists())
	assert.Len(t, snap.Children(), 2)

	leaf, err := s.Get(ctx, "hotelBookings/u1/k1/price_per_night")
	require.NoError(t, err)
	assert.Equal(t, float64(100), leaf.Value())

	require.NoError(t, s.Remove(ctx, "hotelBookings/u1/k1"))
	snap, err = s.Get(ctx, "hotelBookings/u1")
	require.NoError(t, err)
	assert.False(t, snap.Exists(), "empty parent should be pruned")

	require.NoError(t, s.Remove(ctx, "hotelBookings/nobody/nothing"), "removing a missing path succeeds")
}

func TestStore_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Set(ctx, "users/u1", map[string]any{"email": "a", "name": "A"}))
	require.NoError(t, s.Set(ctx, "users/u1", map[string]any{"email": "b"}))

	snap, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "b"}, snap.Value())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "a/b", map[string]any{"x": "1"}))

	snap, err := s.Get(ctx, "a")
	require.NoError(t, err)
	v := snap.Value().(map[string]any)
	v["b"] = "mutated"

	again, err := s.Get(ctx, "a/b/x")
	require.NoError(t, err)
	assert.Equal(t, "1", again.Value())
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Create(ctx, "bookingLocks/k1", map[string]any{"id": "k1"}))
	err := s.Create(ctx, "bookingLocks/k1", map[string]any{"id": "k1"})
	assert.ErrorIs(t, err, docstore.ErrExists)
}

func TestStore_InvalidPaths(t *testing.T) {
	ctx := context.Background()
	s := New()

	assert.ErrorIs(t, s.Set(ctx, "", map[string]any{"a": 1}), docstore.ErrInvalidPath)
	assert.ErrorIs(t, s.Set(ctx, "users/a.b", map[string]any{"a": 1}), docstore.ErrInvalidPath)
	_, err := s.Get(ctx, "users/a#b")
	assert.ErrorIs(t, err, docstore.ErrInvalidPath)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Set(ctx, "a/b", 1), context.Canceled)
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "hotels/d1", map[string]any{"hotel_id": "H1"}))

	var mu sync.Mutex
	var seen []*docstore.Snapshot
	unsubscribe, err := s.Subscribe(ctx, "hotels", func(snap *docstore.Snapshot) {
		mu.Lock()
		seen = append(seen, snap)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "hotels/d2", map[string]any{"hotel_id": "H2"}))
	require.NoError(t, s.Set(ctx, "users/u1", map[string]any{"email": "x"}))

	mu.Lock()
	require.Len(t, seen, 2, "initial value plus one overlapping write")
	assert.Len(t, seen[0].Children(), 1)
	assert.Len(t, seen[1].Children(), 2)
	mu.Unlock()

	unsubscribe()
	require.NoError(t, s.Set(ctx, "hotels/d3", map[string]any{"hotel_id": "H3"}))

	mu.Lock()
	assert.Len(t, seen, 2, "no callbacks after unsubscribe")
	mu.Unlock()
}

func TestStore_SubscribeEndsWithContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())

	calls := make(chan struct{}, 10)
	_, err := s.Subscribe(ctx, "hotels", func(*docstore.Snapshot) { calls <- struct{}{} })
	require.NoError(t, err)
	<-calls

	cancel()
	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.subs) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStore_Close(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Close(ctx))

	assert.ErrorIs(t, s.Ping(ctx), docstore.ErrClosed)
	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, docstore.ErrClosed)
}
