package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/mediz/internal/transcript"
)

// HistoryCache keeps recent session histories close at hand. Storage stays
// the source of truth: the service reads through the cache and writes to it
// only after a turn was persisted.
type HistoryCache interface {
	Get(ctx context.Context, sessionID string) ([]transcript.Turn, bool, error)
	Put(ctx context.Context, sessionID string, turns []transcript.Turn) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryHistoryCache is an in-process HistoryCache.
type MemoryHistoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	turns   []transcript.Turn
	expires time.Time
}

// NewMemoryHistoryCache creates an in-process cache. A zero ttl keeps
// entries until deleted.
func NewMemoryHistoryCache(ttl time.Duration) *MemoryHistoryCache {
	return &MemoryHistoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryHistoryCache) Get(_ context.Context, sessionID string) ([]transcript.Turn, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[sessionID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, sessionID)
		c.mu.Unlock()
		return nil, false, nil
	}
	out := make([]transcript.Turn, len(e.turns))
	copy(out, e.turns)
	return out, true, nil
}

func (c *MemoryHistoryCache) Put(_ context.Context, sessionID string, turns []transcript.Turn) error {
	e := memoryEntry{turns: make([]transcript.Turn, len(turns))}
	copy(e.turns, turns)
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[sessionID] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryHistoryCache) Delete(_ context.Context, sessionID string) error {
	c.mu.Lock()
	delete(c.entries, sessionID)
	c.mu.Unlock()
	return nil
}

// RedisHistoryCache stores histories as JSON documents in Redis.
type RedisHistoryCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisHistoryCache connects to the Redis server at url
// (redis://[:password@]host:port/db) and verifies the connection.
func NewRedisHistoryCache(ctx context.Context, url string, ttl time.Duration) (*RedisHistoryCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisHistoryCacheFromClient(rdb, ttl), nil
}

// NewRedisHistoryCacheFromClient wraps an existing client.
func NewRedisHistoryCacheFromClient(rdb *redis.Client, ttl time.Duration) *RedisHistoryCache {
	return &RedisHistoryCache{rdb: rdb, ttl: ttl, prefix: "mediz:history:"}
}

func (c *RedisHistoryCache) key(sessionID string) string {
	return c.prefix + sessionID
}

func (c *RedisHistoryCache) Get(ctx context.Context, sessionID string) ([]transcript.Turn, bool, error) {
	data, err := c.rdb.Get(ctx, c.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var turns []transcript.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, false, fmt.Errorf("decode cached history: %w", err)
	}
	return turns, true, nil
}

func (c *RedisHistoryCache) Put(ctx context.Context, sessionID string, turns []transcript.Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(sessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisHistoryCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.rdb.Del(ctx, c.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisHistoryCache) Close() error {
	return c.rdb.Close()
}
