package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryClient implements an in-process cache. It is the default driver and
// the one tests use.
type MemoryClient struct {
	mu      sync.RWMutex
	data    map[string]cacheEntry
	maxSize int
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryClient creates a new in-memory cache client. A janitor goroutine
// sweeps expired entries every sweep interval until Close is called.
func NewMemoryClient(maxSize int) *MemoryClient {
	return newMemoryClient(maxSize, time.Minute, time.Now)
}

func newMemoryClient(maxSize int, sweep time.Duration, now func() time.Time) *MemoryClient {
	if maxSize <= 0 {
		maxSize = 10000
	}

	c := &MemoryClient{
		data:    make(map[string]cacheEntry),
		maxSize: maxSize,
		now:     now,
		stop:    make(chan struct{}),
	}

	go c.janitor(sweep)

	return c
}

// Get retrieves a value from cache.
func (c *MemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, ErrCacheMiss
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a value in cache with TTL.
func (c *MemoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxSize {
		c.evictOldest()
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	c.data[key] = cacheEntry{
		value:     stored,
		expiresAt: c.now().Add(ttl),
	}

	return nil
}

// IncrBelow increments the decimal counter at key while it is below limit.
// Unreadable or expired values count as zero.
func (c *MemoryClient) IncrBelow(_ context.Context, key string, limit int64, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry, ok := c.data[key]
	var n int64
	if ok && now.Before(entry.expiresAt) {
		n, _ = strconv.ParseInt(string(entry.value), 10, 64)
	} else {
		entry.expiresAt = now.Add(ttl)
		if !ok && len(c.data) >= c.maxSize {
			c.evictOldest()
		}
	}
	if n >= limit {
		return false, nil
	}

	entry.value = []byte(strconv.FormatInt(n+1, 10))
	c.data[key] = entry
	return true, nil
}

// Delete removes a value from cache.
func (c *MemoryClient) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// DeleteByPrefix removes all keys with the given prefix.
func (c *MemoryClient) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

// Ping always succeeds.
func (c *MemoryClient) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryClient) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Close stops the janitor. It is safe to call more than once.
func (c *MemoryClient) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

// evictOldest removes the entry with the earliest expiration.
func (c *MemoryClient) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.data {
		if oldestKey == "" || entry.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expiresAt
		}
	}

	if oldestKey != "" {
		delete(c.data, oldestKey)
	}
}

func (c *MemoryClient) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryClient) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.data {
		if !now.Before(entry.expiresAt) {
			delete(c.data, key)
		}
	}
}
