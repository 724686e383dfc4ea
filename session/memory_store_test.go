package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(ttl time.Duration) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(ttl)
	store.now = clock.Now
	return store, clock
}

func TestMemoryStore_Transitions(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(time.Minute)

	s, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, s.IsIdle())

	require.NoError(t, store.Set(ctx, 1, Session{State: StateAwaitingLookupInput, Category: "phone"}))

	s, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingLookupInput, s.State)
	assert.Equal(t, "phone", s.Category)

	other, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, other.IsIdle(), "sessions are per user")

	require.NoError(t, store.Clear(ctx, 1))
	s, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, s.IsIdle())
}

func TestMemoryStore_SetIdleClears(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(time.Minute)

	require.NoError(t, store.Set(ctx, 1, Session{State: StateAwaitingRedeemCode}))
	require.NoError(t, store.Set(ctx, 1, Idle()))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(time.Minute)

	require.NoError(t, store.Set(ctx, 1, Session{State: StateAwaitingBulkGift}))
	clock.Advance(30 * time.Second)
	require.NoError(t, store.Set(ctx, 2, Session{State: StateAwaitingCustomCode}))

	clock.Advance(45 * time.Second)

	s, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, s.IsIdle(), "expired session reads as idle")

	s, err = store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingCustomCode, s.State)

	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_CleanupWorkerStops(t *testing.T) {
	store, clock := newTestStore(time.Millisecond)
	require.NoError(t, store.Set(context.Background(), 1, Session{State: StateAwaitingRedeemCode}))
	clock.Advance(time.Second)

	stop := store.StartCleanupWorker(context.Background(), 5*time.Millisecond)
	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	stop()
	stop()
}
