package local

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

type kvEntry struct {
	value    string
	expireAt time.Time // zero means no expiry
}

func (e kvEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// LocalCache is the single-process stand-in for Redis used when no
// redis_addr is configured: session keys with TTLs plus the chat
// history list. One mutex guards both maps; the hot paths are tiny.
type LocalCache struct {
	mu    sync.Mutex
	kv    map[string]kvEntry
	lists map[string][]string

	gcInterval time.Duration
	stopGC     chan struct{}
}

// NewCache creates a LocalCache and starts its expiry sweeper.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:         make(map[string]kvEntry),
		lists:      make(map[string][]string),
		gcInterval: interval,
		stopGC:     make(chan struct{}),
	}
	go c.sweepExpired()
	return c, nil
}

// Close stops the expiry sweeper.
func (c *LocalCache) Close() {
	close(c.stopGC)
}

func (c *LocalCache) sweepExpired() {
	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			for k, e := range c.kv {
				if e.expired(now) {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.kv[key]
	if !ok {
		return "", ErrNotFound
	}
	if e.expired(time.Now()) {
		delete(c.kv, key)
		return "", ErrNotFound
	}
	return e.value, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := kvEntry{value: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.kv[key] = e
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.kv, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.kv[key]
	if !ok {
		return false, nil
	}
	if e.expired(time.Now()) {
		delete(c.kv, key)
		return false, nil
	}
	return true, nil
}

// LPush prepends values one at a time, so the last value given ends up
// at index 0, matching Redis semantics.
func (c *LocalCache) LPush(_ context.Context, key string, values ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.lists[key]
	for _, v := range values {
		l = append([]string{v}, l...)
	}
	c.lists[key] = l
	return nil
}

func (c *LocalCache) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.lists[key]
	start, stop, ok := clampRange(start, stop, int64(len(l)))
	if !ok {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, l[start:stop+1])
	return out, nil
}

func (c *LocalCache) LTrim(_ context.Context, key string, start, stop int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.lists[key]
	start, stop, ok := clampRange(start, stop, int64(len(l)))
	if !ok {
		delete(c.lists, key)
		return nil
	}
	c.lists[key] = l[start : stop+1]
	return nil
}

// clampRange normalizes a Redis-style [start, stop] window against a
// list of length n. A negative or past-the-end stop means "to the end".
func clampRange(start, stop, n int64) (int64, int64, bool) {
	if start < 0 {
		start = 0
	}
	if start >= n {
		return 0, 0, false
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	if stop < start {
		return 0, 0, false
	}
	return start, stop, true
}
