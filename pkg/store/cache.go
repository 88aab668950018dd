package store

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/utkarsh5026/gitcore/pkg/objects"
)

// FileSize is a byte count used to bound the cache.
type FileSize int64

const (
	Byte FileSize = 1 << (iota * 10)
	KiByte
	MiByte
	GiByte
)

// DefaultCacheSize bounds the object cache when no size is given.
const DefaultCacheSize = 96 * MiByte

// objectLRU keeps the most recently used objects within a byte budget.
// groupcache's lru is not safe for concurrent use, hence the mutex.
type objectLRU struct {
	mu         sync.Mutex
	maxSize    FileSize
	actualSize FileSize
	cache      *lru.Cache
}

func newObjectLRU(size FileSize) *objectLRU {
	c := &objectLRU{maxSize: size}
	lc := lru.New(0)
	lc.OnEvicted = func(_ lru.Key, value interface{}) {
		c.actualSize -= FileSize(value.(*objects.RawObject).Size())
	}
	c.cache = lc
	return c
}

func (c *objectLRU) add(o *objects.RawObject) {
	size := FileSize(o.Size())
	if size >= c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cache.Get(o.ID); ok {
		return
	}
	c.cache.Add(o.ID, o)
	c.actualSize += size

	for c.actualSize > c.maxSize {
		c.cache.RemoveOldest()
	}
}

func (c *objectLRU) get(id objects.ObjectID) (*objects.RawObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*objects.RawObject), true
}

func (c *objectLRU) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Clear()
	c.actualSize = 0
}

// Cached wraps an ObjectStore with a size-bounded LRU of decoded objects.
// Objects are immutable, so cached entries never go stale.
type Cached struct {
	ObjectStore
	cache *objectLRU
}

// NewCached wraps s; a size of zero uses DefaultCacheSize.
func NewCached(s ObjectStore, size FileSize) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cached{ObjectStore: s, cache: newObjectLRU(size)}
}

// ReadObject serves from the cache when possible.
func (c *Cached) ReadObject(ctx context.Context, id objects.ObjectID) (*objects.RawObject, error) {
	if o, ok := c.cache.get(id); ok {
		return o, nil
	}
	o, err := c.ObjectStore.ReadObject(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.add(o)
	return o, nil
}

// HasObject answers from the cache when possible.
func (c *Cached) HasObject(ctx context.Context, id objects.ObjectID) (bool, error) {
	if _, ok := c.cache.get(id); ok {
		return true, nil
	}
	return c.ObjectStore.HasObject(ctx, id)
}

// Clear drops every cached object.
func (c *Cached) Clear() {
	c.cache.clear()
}
