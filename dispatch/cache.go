package dispatch

import (
	"sync"
	"time"

	"github.com/cinegate/cinegate/filesystem"
	"github.com/metafates/gache"
	"github.com/samber/mo"
)

type cacheEntry[T any] struct {
	Value   T         `json:"value"`
	Expires time.Time `json:"expires"`
}

// cacheData is the on-disk layout of a cacher.
type cacheData[T any] struct {
	Entries map[string]cacheEntry[T] `json:"entries"`
}

// cacher is a gache-backed key/value file with an expiry per entry, so one
// stale resolution never invalidates the others.
type cacher[T any] struct {
	internal *gache.Cache[*cacheData[T]]
	lifetime time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

func newCacher[T any](path string, lifetime time.Duration) *cacher[T] {
	return &cacher[T]{
		internal: gache.New[*cacheData[T]](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Get returns the live value stored under key.
func (c *cacher[T]) Get(key string) mo.Option[T] {
	if c == nil {
		return mo.None[T]()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	data, _, err := c.internal.Get()
	if err != nil || data == nil {
		return mo.None[T]()
	}

	e, ok := data.Entries[key]
	if !ok || !c.now().Before(e.Expires) {
		return mo.None[T]()
	}
	return mo.Some(e.Value)
}

// Set stores t under key and drops every expired entry on the way.
func (c *cacher[T]) Set(key string, t T) error {
	if c == nil || c.lifetime <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.load()
	if err != nil {
		return err
	}

	now := c.now()
	for k, e := range data.Entries {
		if !now.Before(e.Expires) {
			delete(data.Entries, k)
		}
	}
	data.Entries[key] = cacheEntry[T]{Value: t, Expires: now.Add(c.lifetime)}
	return c.internal.Set(data)
}

// Delete removes key.
func (c *cacher[T]) Delete(key string) error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.load()
	if err != nil {
		return err
	}
	if _, ok := data.Entries[key]; !ok {
		return nil
	}
	delete(data.Entries, key)
	return c.internal.Set(data)
}

func (c *cacher[T]) load() (*cacheData[T], error) {
	data, _, err := c.internal.Get()
	if err != nil {
		return nil, err
	}
	if data == nil || data.Entries == nil {
		data = &cacheData[T]{Entries: make(map[string]cacheEntry[T])}
	}
	return data, nil
}
