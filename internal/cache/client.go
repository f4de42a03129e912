// Package cache provides the key-value store used for intent memoization
// and throttle counters.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface. Implementations must be safe for
// concurrent use.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// Pinger is implemented by clients that can report backend liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter is implemented by clients that can bump a counter atomically.
// IncrBelow increments key only while its value is below limit and reports
// whether it did. A new counter expires after ttl.
type Counter interface {
	IncrBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (bool, error)
}

// GetJSON reads key and decodes it into dst.
func GetJSON(ctx context.Context, c Client, key string, dst interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode cached %q: %w", key, err)
	}
	return nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, c Client, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// CacheKey generates a cache key from components.
func CacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}
