// Package opentabs remembers which character tabs an owner had open so a
// restarted session can reopen them.
package opentabs

import (
	"context"
	"sync"
)

// Cache stores the ordered list of open character IDs per owner
type Cache interface {
	Save(ctx context.Context, ownerID string, characterIDs []string) error
	Load(ctx context.Context, ownerID string) ([]string, error)
}

// InMemoryCache keeps open tabs for the life of the process
type InMemoryCache struct {
	mu   sync.RWMutex
	tabs map[string][]string
}

// NewInMemoryCache creates an empty in-memory cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{tabs: make(map[string][]string)}
}

// Save replaces the owner's open tabs
func (c *InMemoryCache) Save(ctx context.Context, ownerID string, characterIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabs[ownerID] = append([]string(nil), characterIDs...)
	return nil
}

// Load returns the owner's open tabs, empty when none were saved
func (c *InMemoryCache) Load(ctx context.Context, ownerID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.tabs[ownerID]...), nil
}
