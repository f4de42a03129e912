// Package throttle implements fixed-window per-client admission control
// backed by the shared cache.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/JustMelih/GameVault/internal/cache"
)

// Throttle admits at most Capacity requests per client in each window.
// Counters live in the cache so several API processes sharing Redis share
// one budget. Bursts reset at window boundaries.
type Throttle struct {
	cache    cache.Client
	capacity int
	window   time.Duration
	now      func() time.Time
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Throttle) { t.now = now }
}

// New creates a throttle. Window is truncated to whole seconds, minimum one.
func New(c cache.Client, capacity int, window time.Duration, opts ...Option) *Throttle {
	if capacity <= 0 {
		capacity = 5
	}
	if window < time.Second {
		window = time.Second
	}
	t := &Throttle{
		cache:    c,
		capacity: capacity,
		window:   window.Truncate(time.Second),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Admit reports whether the client may proceed. A rejected request does not
// consume budget. Cache errors are returned to the caller, who decides
// whether to fail open.
//
// Caches implementing cache.Counter check and increment in one step, so
// replicas sharing Redis cannot admit past capacity. Other caches fall back
// to a read followed by a write.
func (t *Throttle) Admit(ctx context.Context, clientKey string) (bool, error) {
	key := t.windowKey(clientKey)

	if ctr, ok := t.cache.(cache.Counter); ok {
		admitted, err := ctr.IncrBelow(ctx, key, int64(t.capacity), t.window)
		if err != nil {
			return false, fmt.Errorf("increment throttle count: %w", err)
		}
		return admitted, nil
	}

	count, err := t.count(ctx, key)
	if err != nil {
		return false, err
	}
	if count >= t.capacity {
		return false, nil
	}

	if err := t.cache.Set(ctx, key, []byte(strconv.Itoa(count+1)), t.window); err != nil {
		return false, fmt.Errorf("store throttle count: %w", err)
	}
	return true, nil
}

func (t *Throttle) windowKey(clientKey string) string {
	secs := int64(t.window / time.Second)
	index := t.now().Unix() / secs
	return cache.CacheKey(clientKey, strconv.FormatInt(index, 10))
}

func (t *Throttle) count(ctx context.Context, key string) (int, error) {
	raw, err := t.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read throttle count: %w", err)
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		// Unreadable counter: start the window over.
		return 0, nil
	}
	return n, nil
}
