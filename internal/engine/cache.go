package engine

import (
	"sync/atomic"

	cache "github.com/patrickmn/go-cache"

	"github.com/roach88/bayesq/internal/dataset"
	"github.com/roach88/bayesq/internal/ir"
	"github.com/roach88/bayesq/internal/predicate"
)

// Cache memoizes predicate row sets keyed by (dataset snapshot, predicate).
//
// Entries never expire: a snapshot's rows never change, so a cached set
// stays correct for the snapshot's lifetime. Cached RowSets are immutable
// and shared between callers. Safe for concurrent use.
type Cache struct {
	entries *cache.Cache
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	// Zero cleanup interval: no janitor goroutine, nothing ever expires
	return &Cache{entries: cache.New(cache.NoExpiration, 0)}
}

func cacheKey(ds dataset.Dataset, p predicate.Predicate) string {
	return ds.ID() + "\x00" + p.Column + "\x00" + p.String()
}

func (c *Cache) get(ds dataset.Dataset, p predicate.Predicate) (ir.RowSet, bool) {
	if v, found := c.entries.Get(cacheKey(ds, p)); found {
		if rows, ok := v.(ir.RowSet); ok {
			c.hits.Add(1)
			return rows, true
		}
	}
	c.misses.Add(1)
	return ir.RowSet{}, false
}

func (c *Cache) put(ds dataset.Dataset, p predicate.Predicate, rows ir.RowSet) {
	c.entries.SetDefault(cacheKey(ds, p), rows)
}

// Stats returns hit, miss, and entry counts.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.entries.ItemCount(),
	}
}
