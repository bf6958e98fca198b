package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a cached recommendation result stays fresh.
const DefaultTTL = 300 * time.Second

// DefaultMaxEntries bounds the in-memory backend's size.
const DefaultMaxEntries = 1000

// Stats reports cache occupancy and hit counters.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Store caches serialized recommendation results keyed by request shape.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Clear(ctx context.Context)
	Stats(ctx context.Context) Stats
}
