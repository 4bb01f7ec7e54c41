// Package cache stores JSON-encoded values in Redis, or in process memory
// when Redis is not configured. Misses and backend errors look the same to
// callers: the value is simply recomputed.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darzi-app/darzi/config"
	"github.com/darzi-app/darzi/pkg/metrics"
)

// Cache is the subset of operations the repositories rely on.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Connect returns a Redis cache for REDIS_ADDR, or an in-memory cache when
// no address is configured. A failed ping returns the memory cache together
// with the error so callers can log and carry on.
func Connect(ctx context.Context) (Cache, error) {
	addr := config.RedisAddr()
	if addr == "" {
		return NewMemory(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.RedisPassword(),
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return NewMemory(), fmt.Errorf("cache: redis ping: %w", err)
	}
	return NewRedis(rdb), nil
}

// ─── Redis ──────────────────────────────────────────────────────────────────

// Redis is a Cache backed by a go-redis client.
type Redis struct {
	rdb *redis.Client
}

// NewRedis wraps rdb. The same client can back the job queue.
func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

// Client exposes the underlying client.
func (r *Redis) Client() *redis.Client { return r.rdb }

func (r *Redis) Get(ctx context.Context, key string, dest any) bool {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil || json.Unmarshal(val, dest) != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return r.rdb.Set(ctx, key, data, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// ─── Memory ─────────────────────────────────────────────────────────────────

type memEntry struct {
	data    []byte
	expires time.Time
}

// Memory is a process-local Cache. Values are stored encoded so callers never
// share mutable state with the cache.
type Memory struct {
	mu    sync.Mutex
	items map[string]memEntry
	now   func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{items: map[string]memEntry{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dest any) bool {
	m.mu.Lock()
	e, ok := m.items[key]
	if ok && !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok || json.Unmarshal(e.data, dest) != nil {
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues("memory").Inc()
	return true
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	e := memEntry{data: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}
