package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUQueryCache keeps the most recently used query embeddings in process
type LRUQueryCache struct {
	entries *lru.Cache[string, []float32]
}

// NewLRUQueryCache creates an in-process cache holding up to size embeddings
func NewLRUQueryCache(size int) (*LRUQueryCache, error) {
	entries, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUQueryCache{entries: entries}, nil
}

func (c *LRUQueryCache) Get(_ context.Context, key string) ([]float32, bool) {
	return c.entries.Get(key)
}

func (c *LRUQueryCache) Set(_ context.Context, key string, embedding []float32) {
	c.entries.Add(key, embedding)
}

// Len reports the number of cached embeddings
func (c *LRUQueryCache) Len() int {
	return c.entries.Len()
}
