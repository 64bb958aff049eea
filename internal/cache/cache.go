package cache

import (
	"context"
	"fmt"
	"sync"

	"ts-catalog/internal/catalog"

	"github.com/rs/zerolog/log"
)

// Loader loads a catalog by name.
type Loader interface {
	LoadCatalog(ctx context.Context, name string) (*catalog.Catalog, error)
}

// CatalogCache keeps decoded catalogs in memory in front of a Loader.
type CatalogCache struct {
	loader Loader
	mu     sync.RWMutex
	memory map[string]*catalog.Catalog
}

// NewCatalogCache creates a cache that falls through to loader on a miss.
func NewCatalogCache(loader Loader) *CatalogCache {
	return &CatalogCache{
		loader: loader,
		memory: make(map[string]*catalog.Catalog),
	}
}

// Get returns the cached catalog, loading it on the first request.
func (c *CatalogCache) Get(ctx context.Context, name string) (*catalog.Catalog, error) {
	c.mu.RLock()
	if v, ok := c.memory[name]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	loaded, err := c.loader.LoadCatalog(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// Another caller may have loaded it meanwhile; keep the first copy.
	if v, ok := c.memory[name]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.memory[name] = loaded
	c.mu.Unlock()

	return loaded, nil
}

// Set stores a catalog directly, e.g. right after saving it.
func (c *CatalogCache) Set(name string, cat *catalog.Catalog) {
	c.mu.Lock()
	c.memory[name] = cat
	c.mu.Unlock()
}

// Invalidate drops name so the next Get reloads it.
func (c *CatalogCache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.memory, name)
	c.mu.Unlock()
}

// Len is the number of cached catalogs.
func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}

// Preload loads every named catalog into memory.
func (c *CatalogCache) Preload(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, err := c.Get(ctx, name); err != nil {
			return fmt.Errorf("preload %s: %w", name, err)
		}
	}
	log.Info().Int("count", len(names)).Msg("Preloaded catalog cache")
	return nil
}
