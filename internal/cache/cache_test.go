package cache

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twc-observations/internal/config"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = clock.Now
	return store, clock
}

func TestMemoryStore_GetSet(t *testing.T) {
	store, clock := newTestStore()
	ctx := t.Context()

	_, found, err := store.Get(ctx, "item:0")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "item:0", []byte(`{"type":"FeatureCollection"}`), 300*time.Second))

	entry, found, err := store.Get(ctx, "item:0")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"type":"FeatureCollection"}`, string(entry.Data))
	assert.Equal(t, 300*time.Second, entry.TTL)

	clock.now = clock.now.Add(100 * time.Second)
	entry, found, _ = store.Get(ctx, "item:0")
	assert.True(t, found)
	assert.Equal(t, 200*time.Second, entry.TTL, "ttl should count down with the clock")

	clock.now = clock.now.Add(199 * time.Second)
	entry, found, _ = store.Get(ctx, "item:0")
	assert.True(t, found, "entry should still be fresh just before the ttl")
	assert.Equal(t, time.Second, entry.TTL)

	clock.now = clock.now.Add(time.Second)
	_, found, _ = store.Get(ctx, "item:0")
	assert.False(t, found, "entry should expire at the ttl")
}

func TestMemoryStore_NonPositiveTTL(t *testing.T) {
	store, _ := newTestStore()

	require.NoError(t, store.Set(t.Context(), "k", []byte("v"), 0))

	_, found, err := store.Get(t.Context(), "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_Cleanup(t *testing.T) {
	store, clock := newTestStore()
	ctx := t.Context()

	require.NoError(t, store.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, store.Set(ctx, "long", []byte("b"), time.Hour))

	clock.now = clock.now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Cleanup())

	_, found, _ := store.Get(ctx, "long")
	assert.True(t, found)
}

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		backend string
		want    any
		wantErr bool
	}{
		{backend: "", want: &MemoryStore{}},
		{backend: "memory", want: &MemoryStore{}},
		{backend: "Redis", want: &RedisStore{}},
		{backend: "none", want: NopStore{}},
		{backend: "memcached", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			store, err := New(config.CacheConfig{Backend: tt.backend, RedisAddr: "localhost:6379"}, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestNopStore(t *testing.T) {
	var store Store = NopStore{}

	require.NoError(t, store.Set(t.Context(), "k", []byte("v"), time.Hour))
	_, found, err := store.Get(t.Context(), "k")
	require.NoError(t, err)
	assert.False(t, found)
}
