package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"twc-observations/internal/config"
)

// Store caches rendered responses for the lifetime their producer suggests
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Entry is a cached value and how long it stays fresh
type Entry struct {
	Data []byte
	TTL  time.Duration
}

// New builds the store selected by cfg.Backend
func New(cfg config.CacheConfig, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Info("using redis response cache", "addr", cfg.RedisAddr)
		return NewRedisStore(client, "twc-observations:"), nil
	case "none":
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	entries map[string]cacheEntry
	mutex   sync.RWMutex
	now     func() time.Time
}

// cacheEntry represents a cached response with its expiry
type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached value if present and not expired
func (m *MemoryStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	m.mutex.RLock()
	entry, found := m.entries[key]
	m.mutex.RUnlock()

	if !found {
		return Entry{}, false, nil
	}

	now := m.now()
	if !now.Before(entry.expiresAt) {
		m.mutex.Lock()
		// Re-check under the write lock; a fresh Set may have replaced it
		if current, ok := m.entries[key]; ok && !m.now().Before(current.expiresAt) {
			delete(m.entries, key)
		}
		m.mutex.Unlock()
		return Entry{}, false, nil
	}

	return Entry{Data: entry.data, TTL: entry.expiresAt.Sub(now)}, true, nil
}

// Set stores value for ttl; a non-positive ttl is not cached
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries[key] = cacheEntry{
		data:      value,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Cleanup removes expired entries
func (m *MemoryStore) Cleanup() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// StartCleanup periodically evicts expired entries until ctx is done
func (m *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// RedisStore shares cached responses between instances
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Get reads the value and its remaining lifetime in one round trip
func (r *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	pipe := r.client.Pipeline()
	get := pipe.Get(ctx, r.prefix+key)
	pttl := pipe.PTTL(ctx, r.prefix+key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	data, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	// PTTL is negative when the key has no expiry or vanished after the GET
	ttl := pttl.Val()
	if ttl <= 0 {
		return Entry{}, false, nil
	}

	return Entry{Data: data, TTL: ttl}, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// NopStore never caches
type NopStore struct{}

func (NopStore) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }

func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
