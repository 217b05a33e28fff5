// Package catalog caches the upstream model catalog in memory.
//
// The catalog is fetched at most once per key while a fill is in flight and
// then served from memory until its TTL expires or Refresh is called. Reads
// are safe for concurrent use.
package catalog

import (
	"context"
	"slices"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/germanamz/openrouter-mcp/pkg/providers/model"
)

const modelsKey = "models"

// Loader fetches the full catalog from upstream.
type Loader func(ctx context.Context) ([]model.Descriptor, error)

// Cache is a read-through cache in front of a Loader.
type Cache struct {
	load  Loader
	store *gocache.Cache
	group singleflight.Group

	mu  sync.Mutex
	gen uint64 // bumped by Refresh; fills started before it are not stored
}

// New creates a Cache. A ttl of zero or less keeps the catalog until Refresh.
func New(ttl time.Duration, load Loader) *Cache {
	exp := ttl
	if ttl <= 0 {
		exp = gocache.NoExpiration
	}

	// No janitor: expired entries are skipped by Get and overwritten on refill.
	return &Cache{
		load:  load,
		store: gocache.New(exp, 0),
	}
}

// Get returns the cached catalog, loading it if absent or expired.
// Concurrent callers share a single upstream fetch; a caller whose ctx is
// done stops waiting without affecting the others. The returned slice is a
// deep copy the caller may modify.
func (c *Cache) Get(ctx context.Context) ([]model.Descriptor, error) {
	if v, ok := c.store.Get(modelsKey); ok {
		return clone(v.([]model.Descriptor)), nil
	}

	ch := c.group.DoChan(modelsKey, func() (any, error) {
		if v, ok := c.store.Get(modelsKey); ok {
			return v, nil
		}

		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()

		// The fill outlives any single waiter.
		models, err := c.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.store.SetDefault(modelsKey, models)
		}
		c.mu.Unlock()

		return models, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return clone(res.Val.([]model.Descriptor)), nil
	}
}

// Refresh drops the cached catalog so the next Get fetches it again. A fill
// already in flight still answers its own waiters but is neither shared with
// later callers nor stored.
func (c *Cache) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.store.Delete(modelsKey)
	c.group.Forget(modelsKey)
}

func clone(models []model.Descriptor) []model.Descriptor {
	out := slices.Clone(models)
	for i := range out {
		out[i].Capabilities = slices.Clone(out[i].Capabilities)
	}

	return out
}
