// Package cache holds per-session reconciliation results in memory.
package cache

import (
	"sync"

	"invoicerecon/internal/reconcile"
)

// ResultCache is an in-memory result store keyed by document name. It is
// append-only: once a name has a result, later writes for it are ignored.
type ResultCache struct {
	mu      sync.RWMutex
	results map[string]*reconcile.Result
	order   []string
}

// NewResultCache creates an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{results: make(map[string]*reconcile.Result)}
}

// Get returns the cached result for name.
func (c *ResultCache) Get(name string) (*reconcile.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[name]
	return r, ok
}

// Put stores r under name unless a result is already present. It reports
// whether r was stored.
func (c *ResultCache) Put(name string, r *reconcile.Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.results[name]; exists {
		return false
	}
	c.results[name] = r
	c.order = append(c.order, name)
	return true
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// Results returns every cached result in insertion order.
func (c *ResultCache) Results() []*reconcile.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*reconcile.Result, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.results[name])
	}
	return out
}
