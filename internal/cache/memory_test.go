package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestMemory(t *testing.T, maxSize int) (*MemoryClient, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newMemoryClient(maxSize, time.Hour, clock.Now)
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestMemoryClient_GetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t, 10)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// Returned slices do not alias stored data.
	got[0] = 'x'
	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), again)
}

func TestMemoryClient_Expiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(t, 10)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Second))
	clock.Advance(9 * time.Second)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	c.sweep()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryClient_EvictsEarliestExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t, 2)

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "new", []byte("3"), time.Hour))

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "long")
	assert.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	// Overwriting an existing key never evicts.
	require.NoError(t, c.Set(ctx, "long", []byte("4"), time.Hour))
	assert.Equal(t, 2, c.Len())
}

func TestMemoryClient_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t, 10)

	for _, k := range []string{"intent:a", "intent:b", "throttle:1.2.3.4:1"} {
		require.NoError(t, c.Set(ctx, k, []byte("x"), time.Minute))
	}
	require.NoError(t, c.DeleteByPrefix(ctx, "intent:"))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "throttle:1.2.3.4:1"))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryClient_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient(100)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, key, []byte("v"), time.Minute)
				_, _ = c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 4)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMemory(t, 10)

	type payload struct {
		Include []string `json:"include"`
	}
	require.NoError(t, SetJSON(ctx, c, "p", payload{Include: []string{"dragon"}}, time.Minute))

	var out payload
	require.NoError(t, GetJSON(ctx, c, "p", &out))
	assert.Equal(t, []string{"dragon"}, out.Include)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Minute))
	assert.Error(t, GetJSON(ctx, c, "bad", &out))
	assert.ErrorIs(t, GetJSON(ctx, c, "absent", &out), ErrCacheMiss)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "throttle:10.0.0.1:1700000", CacheKey("throttle", "10.0.0.1", "1700000"))
	assert.Equal(t, "solo", CacheKey("solo"))
}

func TestMemoryClient_IncrBelow(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestMemory(t, 10)

	for i := 0; i < 3; i++ {
		ok, err := c.IncrBelow(ctx, "throttle:a:1", 3, 10*time.Second)
		require.NoError(t, err)
		assert.True(t, ok, "increment %d", i+1)
	}

	ok, err := c.IncrBelow(ctx, "throttle:a:1", 3, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	raw, err := c.Get(ctx, "throttle:a:1")
	require.NoError(t, err)
	assert.Equal(t, "3", string(raw), "a refused increment leaves the counter alone")

	// The expiry set on creation is not pushed back by later increments.
	clock.Advance(10 * time.Second)
	ok, err = c.IncrBelow(ctx, "throttle:a:1", 3, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	raw, err = c.Get(ctx, "throttle:a:1")
	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))

	require.NoError(t, c.Set(ctx, "throttle:b:1", []byte("garbage"), time.Minute))
	ok, err = c.IncrBelow(ctx, "throttle:b:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	raw, err = c.Get(ctx, "throttle:b:1")
	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))
}
