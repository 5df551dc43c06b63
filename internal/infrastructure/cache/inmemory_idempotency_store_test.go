package cache

import (
	"context"
	"testing"
	"time"

	"github.com/restoreops/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock is a settable time source
type manualClock struct {
	at time.Time
}

func (c *manualClock) now() time.Time { return c.at }

func (c *manualClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *manualClock) {
	t.Helper()
	clock := &manualClock{at: time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(0)
	store.now = clock.now
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()

	t.Run("marks new key", func(t *testing.T) {
		store, _ := newTestStore(t)
		fresh, err := store.MarkProcessed(ctx, "card-capture:1:ch_1", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("rejects a remembered key", func(t *testing.T) {
		store, _ := newTestStore(t)
		_, err := store.MarkProcessed(ctx, "card-capture:1:ch_1", time.Hour)
		require.NoError(t, err)

		fresh, err := store.MarkProcessed(ctx, "card-capture:1:ch_1", time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh)
	})

	t.Run("accepts the key again after expiry", func(t *testing.T) {
		store, clock := newTestStore(t)
		_, err := store.MarkProcessed(ctx, "card-capture:1:ch_1", time.Minute)
		require.NoError(t, err)

		clock.advance(time.Minute)
		fresh, err := store.MarkProcessed(ctx, "card-capture:1:ch_1", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})
}

func TestInMemoryIdempotencyStore_Forget(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "card-capture:2:ch_2", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Forget(ctx, "card-capture:2:ch_2"))

	processed, err := store.IsProcessed(ctx, "card-capture:2:ch_2")
	require.NoError(t, err)
	assert.False(t, processed)

	fresh, err := store.MarkProcessed(ctx, "card-capture:2:ch_2", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	assert.NoError(t, store.Forget(ctx, "never-seen"))
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"short-1", "short-2"} {
		_, err := store.MarkProcessed(ctx, key, time.Minute)
		require.NoError(t, err)
	}
	_, err := store.MarkProcessed(ctx, "long", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Size())

	clock.advance(2 * time.Minute)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	processed, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	const workers = 100

	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			fresh, err := store.MarkProcessed(ctx, "card-capture:3:ch_3", time.Hour)
			results <- err == nil && fresh
		}()
	}

	fresh := 0
	for i := 0; i < workers; i++ {
		if <-results {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh, "exactly one caller should see the key as new")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNewIdempotencyStore_RedisDisabled(t *testing.T) {
	store, err := NewIdempotencyStore(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestNewIdempotencyStore_RedisUnreachable(t *testing.T) {
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	store, err := NewIdempotencyStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)

	_, err = NewIdempotencyStore(context.Background(), cfg, WithInMemoryFallback(false))
	assert.Error(t, err)
}
