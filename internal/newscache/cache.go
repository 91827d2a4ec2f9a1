// Package newscache holds the summarized articles served by the news pipeline.
//
// The cache is either empty or holds one complete population result. It is
// replaced wholesale, never edited item by item, and has no time-based expiry.
package newscache

import (
	"sync"

	"github.com/samvad-hq/newstone/internal/domain"
)

// Cache is an ordered, all-or-nothing store of summarized articles.
type Cache struct {
	mu    sync.RWMutex
	items []domain.CachedArticle
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// IsPopulated reports whether the cache holds at least one article.
func (c *Cache) IsPopulated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items) > 0
}

// Len returns the number of cached articles.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Replace swaps the stored sequence for a copy of items.
func (c *Cache) Replace(items []domain.CachedArticle) {
	next := make([]domain.CachedArticle, len(items))
	copy(next, items)

	c.mu.Lock()
	c.items = next
	c.mu.Unlock()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Snapshot returns a copy of the current sequence in insertion order.
func (c *Cache) Snapshot() []domain.CachedArticle {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.items) == 0 {
		return nil
	}
	out := make([]domain.CachedArticle, len(c.items))
	copy(out, c.items)
	return out
}
