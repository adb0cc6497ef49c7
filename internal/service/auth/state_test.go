package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/pashinov/nexus/internal/adapter/cache"
	"github.com/pashinov/nexus/internal/repository"
)

func newRedisStateStore(t *testing.T) (repository.StateStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedisStore(client), mr
}

func TestStateManager_ConsumeExactlyOnce(t *testing.T) {
	store, _ := newRedisStateStore(t)
	manager := NewStateManager(store, time.Minute)
	ctx := context.Background()

	state, err := manager.Issue(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	ok, err := manager.Consume(ctx, state)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = manager.Consume(ctx, state)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStateManager_UnknownStateRejected(t *testing.T) {
	store, _ := newRedisStateStore(t)
	manager := NewStateManager(store, time.Minute)
	ctx := context.Background()

	ok, err := manager.Consume(ctx, "never-issued")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = manager.Consume(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStateManager_ExpiredStateRejected(t *testing.T) {
	store, mr := newRedisStateStore(t)
	manager := NewStateManager(store, 2*time.Second)
	ctx := context.Background()

	state, err := manager.Issue(ctx)
	require.NoError(t, err)

	mr.FastForward(3 * time.Second)

	ok, err := manager.Consume(ctx, state)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStateManager_StatesAreUnique(t *testing.T) {
	store, _ := newRedisStateStore(t)
	manager := NewStateManager(store, time.Minute)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		state, err := manager.Issue(ctx)
		require.NoError(t, err)
		_, dup := seen[state]
		require.False(t, dup, "duplicate state issued")
		seen[state] = struct{}{}
	}
}

func TestStateManager_StoreErrorPropagates(t *testing.T) {
	store, mr := newRedisStateStore(t)
	manager := NewStateManager(store, time.Minute)
	ctx := context.Background()

	state, err := manager.Issue(ctx)
	require.NoError(t, err)

	mr.Close()

	_, err = manager.Consume(ctx, state)
	require.Error(t, err)

	_, err = manager.Issue(ctx)
	require.Error(t, err)
}
