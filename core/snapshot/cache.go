package snapshot

import (
	"context"
	"sync"
	"time"

	"declaration-manager/core/declaration"

	"golang.org/x/sync/singleflight"
)

const cacheKey = "snapshot"

// Cache wraps a Source with a TTL. Concurrent loads are collapsed into one.
type Cache struct {
	source Source
	ttl    time.Duration

	mu      sync.RWMutex
	current *Map
	built   time.Time
	sf      singleflight.Group

	// writeMu serializes Save and Record so a read-merge-write never loses a
	// concurrent writer's entries.
	writeMu sync.Mutex
}

// NewCache creates a cache in front of source. A zero ttl disables caching but
// still collapses concurrent loads.
func NewCache(source Source, ttl time.Duration) *Cache {
	return &Cache{source: source, ttl: ttl}
}

// Load returns the cached snapshot, loading it from the source if it is missing or
// expired.
func (c *Cache) Load(ctx context.Context) (*Map, error) {
	// Fast path: cached and fresh
	c.mu.RLock()
	current, fresh := c.current, c.isFresh()
	c.mu.RUnlock()
	if fresh {
		return current, nil
	}

	result, err, _ := c.sf.Do(cacheKey, func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		c.mu.RLock()
		current, fresh := c.current, c.isFresh()
		c.mu.RUnlock()
		if fresh {
			return current, nil
		}

		m, err := c.source.Load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.current = m
		c.built = time.Now()
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Map), nil
}

// Save persists m through the underlying source and drops the cached copy.
// It returns ErrReadOnly when the source cannot persist.
func (c *Cache) Save(ctx context.Context, m *Map) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.save(ctx, m)
}

// Record adds every entity of parsed to the current snapshot and saves the
// result. It is called after a plan has been applied. Concurrent calls are
// applied one after the other.
func (c *Cache) Record(ctx context.Context, parsed *declaration.Parsed) error {
	if _, ok := c.source.(Saver); !ok {
		return ErrReadOnly
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// Read the persisted state; a cached copy may predate another writer.
	current, err := c.source.Load(ctx)
	if err != nil {
		return err
	}
	return c.save(ctx, current.Clone().Merge(FromParsed(parsed)))
}

// save must be called with writeMu held.
func (c *Cache) save(ctx context.Context, m *Map) error {
	saver, ok := c.source.(Saver)
	if !ok {
		return ErrReadOnly
	}
	if err := saver.Save(ctx, m); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate drops the cached snapshot. Callers invalidate after applying changes
// so the next cycle sees what it created.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// isFresh must be called with mu held.
func (c *Cache) isFresh() bool {
	if c.current == nil || c.ttl == 0 {
		return false
	}
	return time.Since(c.built) <= c.ttl
}
