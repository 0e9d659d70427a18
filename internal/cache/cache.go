// internal/cache/cache.go
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a stored response stays valid.
const DefaultTTL = 5 * time.Minute

// Entry is a cached payload together with the time it was fetched.
type Entry struct {
	Payload   any
	FetchedAt time.Time
}

// Cache is an in-memory response store keyed by endpoint path.
// Entries expire at read time only; nothing is ever evicted.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	clock   clockwork.Clock
	group   singleflight.Group
}

// New creates a Cache whose entries stay valid for ttl. A nil clock uses wall time.
func New(ttl time.Duration, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the payload stored under key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.clock.Since(e.FetchedAt) >= c.ttl {
		return nil, false
	}
	return e.Payload, true
}

// Put stores payload under key, replacing any previous entry.
func (c *Cache) Put(key string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Payload: payload, FetchedAt: c.clock.Now()}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fetch returns the cached value for key, calling fetch on a miss and storing
// its result on success. Concurrent misses for the same key share one call.
// The shared call is detached from any single caller's cancellation; each
// caller stops waiting when its own ctx is done. Failed fetches are never stored.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		t, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		c.Put(key, t)
		return t, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	if res.Err != nil {
		return zero, res.Err
	}
	t, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("cached payload for %q has type %T", key, res.Val)
	}
	return t, nil
}
