package program

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gpures/internal/cache"
	"github.com/gogpu/gpures/internal/logging"
	"github.com/gogpu/gpures/resource"
)

// ErrCacheClosed is returned by Get after Close.
var ErrCacheClosed = errors.New("program: cache closed")

// DefaultLimit is the soft limit used when a non-positive limit is given.
const DefaultLimit = 64

// Stats reports cache activity.
type Stats = cache.Stats

// Cache builds and owns one program of type P per permutation mask.
//
// Cache is safe for concurrent use.
type Cache[P any] struct {
	entries *cache.Cache[Mask, P]
	build   func(Mask) (P, error)
	closed  atomic.Bool
}

// NewCache returns a cache that builds programs with build and releases them
// with release. When more than limit programs are cached, the least recently
// used are released.
func NewCache[P any](limit int, build func(Mask) (P, error), release func(P)) *Cache[P] {
	if build == nil {
		panic("program: NewCache called with nil build function")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	var onEvict func(Mask, P)
	if release != nil {
		onEvict = func(m Mask, p P) {
			logging.L().Debug("program: released", "mask", m)
			release(p)
		}
	}
	return &Cache[P]{
		entries: cache.New[Mask, P](limit, onEvict),
		build:   build,
	}
}

// Get returns the program for m, building it on first use. Build errors are
// returned wrapped and not cached, so a later Get retries.
func (c *Cache[P]) Get(m Mask) (P, error) {
	if c.closed.Load() {
		var zero P
		return zero, ErrCacheClosed
	}
	return c.entries.GetOrCreate(m, func() (P, error) {
		p, err := c.build(m)
		if err != nil {
			return p, fmt.Errorf("program: build %s: %w", m, err)
		}
		logging.L().Debug("program: built", "mask", m)
		return p, nil
	})
}

// Delete releases the program for m. It reports whether one was cached.
func (c *Cache[P]) Delete(m Mask) bool { return c.entries.Delete(m) }

// Clear releases every cached program.
func (c *Cache[P]) Clear() { c.entries.Clear() }

// Len returns the number of cached programs.
func (c *Cache[P]) Len() int { return c.entries.Len() }

// Masks returns the cached masks from most to least recently used.
func (c *Cache[P]) Masks() []Mask { return c.entries.Keys() }

// Stats returns hit, miss and eviction counters.
func (c *Cache[P]) Stats() Stats { return c.entries.Stats() }

// Close releases every program and rejects further Gets. Close is idempotent.
func (c *Cache[P]) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.entries.Clear()
}

// NewModuleCache returns a cache of shader modules compiled by the device
// from the WGSL text source returns for each mask.
func NewModuleCache(alloc *resource.Allocator, label string, source func(Mask) string, limit int) *Cache[resource.ShaderModule] {
	if alloc == nil || source == nil {
		panic("program: NewModuleCache requires an allocator and a source function")
	}
	return NewCache(limit,
		func(m Mask) (resource.ShaderModule, error) {
			return alloc.CreateShaderModule(label+"-"+m.String(), source(m))
		},
		func(sm resource.ShaderModule) { sm.Free() },
	)
}
