package feed

import (
	"sync"

	"leadmarket_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Cache is a concurrency-safe snapshot of published lead summaries.
// Writers replace or patch entries; readers get a stable copy.
type Cache struct {
	mu    sync.RWMutex
	items []domain.Summary
}

func NewCache() *Cache {
	return &Cache{items: make([]domain.Summary, 0)}
}

// Replace swaps the entire snapshot, newest first.
func (c *Cache) Replace(items []domain.Summary) {
	copied := make([]domain.Summary, len(items))
	copy(copied, items)

	c.mu.Lock()
	c.items = copied
	c.mu.Unlock()
}

// Upsert patches an existing entry or prepends a new one.
func (c *Cache) Upsert(summary domain.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged, found := MergeByID(c.items, summary.ID,
		func(s domain.Summary) uuid.UUID { return s.ID },
		func(domain.Summary) domain.Summary { return summary },
	)
	if found {
		c.items = merged
		return
	}
	c.items = append([]domain.Summary{summary}, c.items...)
}

// Patch applies fn to the entry with the given id, if present.
func (c *Cache) Patch(id uuid.UUID, fn func(domain.Summary) domain.Summary) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged, found := MergeByID(c.items, id,
		func(s domain.Summary) uuid.UUID { return s.ID },
		fn,
	)
	c.items = merged
	return found
}

// Remove drops the entry with the given id.
func (c *Cache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := c.items[:0:0]
	for _, item := range c.items {
		if item.ID != id {
			filtered = append(filtered, item)
		}
	}
	c.items = filtered
}

// All returns a copy of the current snapshot.
func (c *Cache) All() []domain.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	copied := make([]domain.Summary, len(c.items))
	copy(copied, c.items)
	return copied
}
