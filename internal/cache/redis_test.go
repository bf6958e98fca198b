package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/dustin/foodrec-backend/config"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// unreachableRedis returns a store whose client cannot connect; every Get
// counts a miss without needing a live server.
func unreachableRedis(t *testing.T) *Redis {
	t.Helper()
	log, err := logger.NewLogger(&config.LoggingConfig{Level: "fatal", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	return NewRedis(client, time.Minute, log)
}

func TestRedisCountersUnderConcurrentGets(t *testing.T) {
	store := unreachableRedis(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, ok := store.Get(ctx, fmt.Sprintf("key-%d", n))
			assert.False(t, ok)
		}(i)
	}
	wg.Wait()

	stats := store.Stats(ctx)
	assert.Equal(t, int64(workers), stats.Misses)
	assert.Equal(t, int64(0), stats.Hits)
}

func TestRedisDefaultTTL(t *testing.T) {
	store := unreachableRedis(t)
	assert.Equal(t, time.Minute, store.ttl)

	log, err := logger.NewLogger(&config.LoggingConfig{Level: "fatal", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	defaulted := NewRedis(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), 0, log)
	assert.Equal(t, DefaultTTL, defaulted.ttl)
}
