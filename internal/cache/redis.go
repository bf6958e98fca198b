package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dustin/foodrec-backend/pkg/logger"
)

// keyPrefix namespaces recommendation cache entries in a shared Redis.
const keyPrefix = "rec:"

// Redis is a Store backed by a shared Redis instance, for deployments that
// run more than one API replica.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis creates a Redis-backed cache. The connection is verified lazily;
// failures surface as cache misses rather than request errors.
func NewRedis(client *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: log.WithComponent("redis-cache"),
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("cache read failed: " + err.Error())
		}
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return value, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, keyPrefix+key, value, r.ttl).Err(); err != nil {
		r.logger.Warn("cache write failed: " + err.Error())
	}
}

func (r *Redis) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			r.logger.Warn("cache delete failed: " + err.Error())
		}
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("cache scan failed: " + err.Error())
	}
}

func (r *Redis) Stats(ctx context.Context) Stats {
	entries := 0
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		entries++
	}
	return Stats{
		Entries: entries,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
	}
}
