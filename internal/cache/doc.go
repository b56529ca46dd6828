// Package cache provides a generic LRU cache that owns its values.
//
// [Cache] evicts the least recently used quarter of its entries once a soft
// limit is exceeded. Values leaving the cache for any reason are handed to an
// eviction callback, which lets the cache own device objects:
//
//	c := cache.New[uint64, resource.ShaderModule](64, func(_ uint64, m resource.ShaderModule) {
//		m.Free()
//	})
//	mod, err := c.GetOrCreate(mask, build)
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
// Eviction callbacks run on the calling goroutine after the lock is released.
package cache
