package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustin/foodrec-backend/internal/profile"
)

func TestMemoryRoundTrip(t *testing.T) {
	store := NewMemory(0, 0)
	ctx := context.Background()

	_, ok := store.Get(ctx, "missing")
	assert.False(t, ok)

	store.Set(ctx, "key", []byte(`{"score":0.8}`))
	value, ok := store.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"score":0.8}`), value)

	stats := store.Stats(ctx)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestMemoryTTLExpiry(t *testing.T) {
	store := NewMemory(300*time.Second, 10)
	current := time.Now()
	store.now = func() time.Time { return current }
	ctx := context.Background()

	store.Set(ctx, "key", []byte("value"))

	current = current.Add(299 * time.Second)
	_, ok := store.Get(ctx, "key")
	assert.True(t, ok, "entry must survive within the TTL")

	current = current.Add(2 * time.Second)
	_, ok = store.Get(ctx, "key")
	assert.False(t, ok, "entry must expire after the TTL")

	assert.Equal(t, 0, store.Stats(ctx).Entries, "expired entry is removed on read")
}

func TestMemoryEvictsOldestWhenFull(t *testing.T) {
	store := NewMemory(time.Hour, 3)
	current := time.Now()
	store.now = func() time.Time { return current }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		store.Set(ctx, fmt.Sprintf("key-%d", i), []byte("v"))
		current = current.Add(time.Second)
	}

	// Refreshing key-0 makes key-1 the oldest.
	store.Set(ctx, "key-0", []byte("v2"))
	current = current.Add(time.Second)

	store.Set(ctx, "key-3", []byte("v"))

	_, ok := store.Get(ctx, "key-1")
	assert.False(t, ok, "oldest entry must be evicted")
	_, ok = store.Get(ctx, "key-0")
	assert.True(t, ok)
	_, ok = store.Get(ctx, "key-3")
	assert.True(t, ok)
	assert.Equal(t, 3, store.Stats(ctx).Entries)
}

func TestMemoryClear(t *testing.T) {
	store := NewMemory(time.Hour, 10)
	ctx := context.Background()

	store.Set(ctx, "a", []byte("1"))
	store.Set(ctx, "b", []byte("2"))
	store.Clear(ctx)

	assert.Equal(t, 0, store.Stats(ctx).Entries)
	_, ok := store.Get(ctx, "a")
	assert.False(t, ok)
}

func TestProductKey(t *testing.T) {
	assert.Equal(t, "product:42:15", ProductKey(42, 15))
	assert.NotEqual(t, ProductKey(42, 15), ProductKey(42, 20))
}

func TestUserKeyDeterministic(t *testing.T) {
	history := []profile.Event{
		{ProductID: 1, Kind: profile.KindView},
		{ProductID: 2, Kind: profile.KindLike},
	}
	reversed := []profile.Event{
		{ProductID: 2, Kind: profile.KindLike},
		{ProductID: 1, Kind: profile.KindView},
	}

	assert.Equal(t, UserKey(history, 20), UserKey(reversed, 20),
		"event order must not change the key")
	assert.NotEqual(t, UserKey(history, 20), UserKey(history, 10),
		"limit is part of the key")

	different := []profile.Event{
		{ProductID: 1, Kind: profile.KindLike},
		{ProductID: 2, Kind: profile.KindLike},
	}
	assert.NotEqual(t, UserKey(history, 20), UserKey(different, 20),
		"behavior kind is part of the key")
}
