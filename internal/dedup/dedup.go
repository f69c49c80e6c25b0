// Package dedup remembers which upstream items were already delivered to
// which destination for the lifetime of the process.
package dedup

import (
	"sync"
	"time"
)

type key struct {
	chatID int64
	itemID string
}

// Cache is a set of (destination, item) pairs. It is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	marked map[key]time.Time
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{marked: make(map[key]time.Time)}
}

// Seen reports whether itemID was already delivered to chatID.
func (c *Cache) Seen(chatID int64, itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.marked[key{chatID, itemID}]
	return ok
}

// Mark records a delivery at the given time.
func (c *Cache) Mark(chatID int64, itemID string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key{chatID, itemID}
	if _, ok := c.marked[k]; !ok {
		c.marked[k] = at
	}
}

// Prune drops entries marked before cutoff and returns how many were removed.
func (c *Cache) Prune(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, at := range c.marked {
		if at.Before(cutoff) {
			delete(c.marked, k)
			n++
		}
	}
	return n
}

// Len returns the number of remembered deliveries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.marked)
}
