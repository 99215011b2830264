// Package catalog keeps per-user catalog snapshots for voice resolution.
//
// A snapshot is loaded on first use and reused until it expires or is
// invalidated, typically after the user saves a new item.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"gastos/internal/cache"
	"gastos/internal/core"
	"gastos/internal/store"
)

// Snapshot is an immutable view of one user's catalog. Callers must not
// modify the slices.
type Snapshot struct {
	Items      []core.CatalogItem `json:"items"`
	Categories []core.CategoryRow `json:"categories"`
	LoadedAt   time.Time          `json:"loadedAt"`
}

// loadTimeout bounds a shared load, which outlives the request that started it.
const loadTimeout = 15 * time.Second

// Cache is a read-through cache of per-user snapshots.
type Cache struct {
	reader    store.CatalogReader
	snapshots *cache.LRUCache[Snapshot]
	group     singleflight.Group

	// gens counts invalidations per user; epoch counts InvalidateAll calls.
	// A load only stores its result if neither moved while it ran.
	mu    sync.Mutex
	gens  map[string]uint64
	epoch uint64
}

// NewCache builds a cache of at most size snapshots, each kept for ttl.
func NewCache(reader store.CatalogReader, size int, ttl time.Duration) *Cache {
	return &Cache{
		reader:    reader,
		snapshots: cache.NewLRUCache[Snapshot](size, ttl),
		gens:      make(map[string]uint64),
	}
}

// Get returns the user's snapshot, loading it if needed. Concurrent misses
// for the same user share a single load. A caller whose ctx ends stops
// waiting without cancelling the load for the others.
func (c *Cache) Get(ctx context.Context, userID string) (Snapshot, error) {
	if s, ok := c.snapshots.Get(userID); ok {
		return s, nil
	}

	// Keying the flight by generation keeps callers that arrive after an
	// invalidation from joining a load that started before it.
	gen := c.generation(userID)
	key := fmt.Sprintf("%s@%d.%d", userID, gen.user, gen.epoch)
	ch := c.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		s, err := c.load(lctx, userID)
		if err != nil {
			return nil, err
		}
		c.store(userID, gen, s)
		return s, nil
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

type loadGen struct {
	user, epoch uint64
}

func (c *Cache) generation(userID string) loadGen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return loadGen{user: c.gens[userID], epoch: c.epoch}
}

// store caches s unless the user was invalidated after gen was taken.
func (c *Cache) store(userID string, gen loadGen, s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen.user || c.epoch != gen.epoch {
		return
	}
	c.snapshots.Set(userID, s)
}

func (c *Cache) load(ctx context.Context, userID string) (Snapshot, error) {
	var s Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := c.reader.ListItems(gctx, userID)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		s.Items = items
		return nil
	})
	g.Go(func() error {
		rows, err := c.reader.ListCategoryRows(gctx, userID)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		s.Categories = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("load catalog for %s: %w", userID, err)
	}
	s.LoadedAt = time.Now()
	return s, nil
}

// Invalidate drops the user's snapshot so the next Get reloads it. A load
// already in flight still answers its callers but is not cached.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	c.gens[userID]++
	c.snapshots.Delete(userID)
	c.mu.Unlock()
}

// InvalidateAll drops every snapshot, including loads in flight.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.epoch++
	c.snapshots.Purge()
	c.mu.Unlock()
}

// Stats exposes the underlying cache counters.
func (c *Cache) Stats() cache.Stats {
	return c.snapshots.Stats()
}

// CleanExpired lets a cache.Manager sweep stale snapshots.
func (c *Cache) CleanExpired() int {
	return c.snapshots.CleanExpired()
}
