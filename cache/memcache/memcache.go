// Package memcache is an in-process sloth.Cache. Values are copied on the way
// in and out, so callers may reuse their buffers.
package memcache

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/Alp4ka/sloth"
)

type Cache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func New() *Cache {
	return &Cache{data: make(map[string][]byte)}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}

	return slices.Clone(v), true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = slices.Clone(value)

	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.data, key)
	}

	return nil
}

// CompareAndSwap - implements sloth.Swapper.
func (c *Cache) CompareAndSwap(_ context.Context, key string, old, new []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.data[key]
	if old == nil {
		if ok {
			return false, nil
		}
	} else if !ok || !bytes.Equal(cur, old) {
		return false, nil
	}

	c.data[key] = slices.Clone(new)

	return true, nil
}

// Len returns the number of stored keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

var (
	_ sloth.Cache   = (*Cache)(nil)
	_ sloth.Swapper = (*Cache)(nil)
)
