// Package cache is the content-addressed memo of parse and metric
// results. Keys are content hashes, never paths: a file edited and
// reverted to identical bytes reuses its old entry, and identical files
// at different paths share one entry.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codescope/codescope/internal/lang"
	"github.com/codescope/codescope/internal/metrics"
)

// DefaultSize bounds the cache when no capacity is configured.
const DefaultSize = 4096

// Entry pairs a symbol record with its derived metrics.
type Entry struct {
	Record  *lang.SymbolRecord
	Metrics metrics.NodeMetrics
}

// Cache is a bounded LRU shared across jobs. Eviction never fails a
// running job; a miss just recomputes. Safe for concurrent use.
type Cache struct {
	lru    *lru.Cache[string, Entry]
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Cache holding at most size entries. size <= 0 uses
// DefaultSize.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	l, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("create content cache: %w", err)
	}
	return &Cache{lru: l}, nil
}

// Hash computes the content key for file bytes.
func Hash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// Get looks up an entry by content hash, recording a hit or miss.
func (c *Cache) Get(hash string) (Entry, bool) {
	e, ok := c.lru.Get(hash)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Add stores an entry under its content hash.
func (c *Cache) Add(hash string, e Entry) {
	c.lru.Add(hash, e)
}

// Len returns the current entry count.
func (c *Cache) Len() int { return c.lru.Len() }

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge drops every entry, typically between full project re-syncs.
func (c *Cache) Purge() { c.lru.Purge() }
