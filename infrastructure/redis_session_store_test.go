package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"creditbot/session"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "redis")
	require.NoError(t, err)

	rdb, err := NewRedisClient(ctx, endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisSessionStore(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	store := NewRedisSessionStore(rdb, time.Minute)

	t.Run("missing session is idle", func(t *testing.T) {
		s, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.True(t, s.IsIdle())
	})

	t.Run("round trip and clear", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, 2, session.Session{State: session.StateAwaitingLookupInput, Category: "vehicle"}))

		s, err := store.Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingLookupInput, s.State)
		assert.Equal(t, "vehicle", s.Category)

		ttl, err := rdb.TTL(ctx, sessionKey(2)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))

		require.NoError(t, store.Set(ctx, 2, session.Idle()))
		s, err = store.Get(ctx, 2)
		require.NoError(t, err)
		assert.True(t, s.IsIdle())
	})

	t.Run("key expiry", func(t *testing.T) {
		short := NewRedisSessionStore(rdb, time.Second)
		require.NoError(t, short.Set(ctx, 3, session.Session{State: session.StateAwaitingRedeemCode}))

		assert.Eventually(t, func() bool {
			s, err := short.Get(ctx, 3)
			return err == nil && s.IsIdle()
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("corrupt payload reads as idle", func(t *testing.T) {
		require.NoError(t, rdb.Set(ctx, sessionKey(4), "not json", time.Minute).Err())
		s, err := store.Get(ctx, 4)
		require.NoError(t, err)
		assert.True(t, s.IsIdle())
	})
}
