package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/bitebook/backend/internal/domain"
)

const (
	DefaultMaxEntries      = 500
	DefaultTTL             = 10 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Options configures a MemoryCache. Zero values fall back to the defaults.
type Options struct {
	MaxEntries      int
	TTL             time.Duration
	CleanupInterval time.Duration
	// Now is the clock used for expiry; tests substitute a virtual clock
	Now func() time.Time
}

// cacheItem represents a single item in the cache with its insertion time
type cacheItem struct {
	key        string
	value      any
	insertedAt time.Time
}

// bucket is one named cache: a map for lookup plus a list in insertion order
type bucket struct {
	items map[string]*list.Element
	order *list.List
}

func newBucket() *bucket {
	return &bucket{items: make(map[string]*list.Element), order: list.New()}
}

func (b *bucket) remove(el *list.Element) {
	b.order.Remove(el)
	delete(b.items, el.Value.(*cacheItem).key)
}

// MemoryCache is a thread-safe in-memory cache of independently bounded,
// TTL-expiring named caches
type MemoryCache struct {
	buckets    map[string]*bucket
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	mutex      sync.Mutex
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its cleanup goroutine
func NewMemoryCache(opts Options) *MemoryCache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cache := &MemoryCache{
		buckets:    make(map[string]*bucket),
		maxEntries: opts.MaxEntries,
		ttl:        opts.TTL,
		now:        opts.Now,
		stop:       make(chan struct{}),
	}

	go cache.cleanupExpired(opts.CleanupInterval)

	return cache
}

// Get retrieves a value from the named cache. Expired entries are removed
// and reported as a miss.
func (c *MemoryCache) Get(ctx context.Context, name, key string) (any, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	b, ok := c.buckets[name]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	el, ok := b.items[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	item := el.Value.(*cacheItem)
	if c.expired(item, c.now()) {
		b.remove(el)
		return nil, domain.ErrCacheMiss
	}

	return item.value, nil
}

// Set stores a value in the named cache, evicting the oldest insertion when
// the cache is full. Re-setting a key counts as a fresh insertion.
func (c *MemoryCache) Set(ctx context.Context, name, key string, value any) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	b, ok := c.buckets[name]
	if !ok {
		b = newBucket()
		c.buckets[name] = b
	}

	if el, exists := b.items[key]; exists {
		b.remove(el)
	}

	for b.order.Len() >= c.maxEntries {
		b.remove(b.order.Front())
	}

	b.items[key] = b.order.PushBack(&cacheItem{
		key:        key,
		value:      value,
		insertedAt: c.now(),
	})

	return nil
}

// Delete removes a value from the named cache
func (c *MemoryCache) Delete(ctx context.Context, name, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if b, ok := c.buckets[name]; ok {
		if el, exists := b.items[key]; exists {
			b.remove(el)
		}
	}
	return nil
}

func (c *MemoryCache) expired(item *cacheItem, now time.Time) bool {
	return now.Sub(item.insertedAt) >= c.ttl
}

// cleanupExpired removes expired entries from every cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}

func (c *MemoryCache) purgeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for _, b := range c.buckets {
		// insertion order means the first live entry ends the sweep
		for el := b.order.Front(); el != nil; el = b.order.Front() {
			if !c.expired(el.Value.(*cacheItem), now) {
				break
			}
			b.remove(el)
		}
	}
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Size returns the number of items held by the named cache (for debugging/monitoring)
func (c *MemoryCache) Size(name string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if b, ok := c.buckets[name]; ok {
		return b.order.Len()
	}
	return 0
}

// Clear removes all items from every cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.buckets = make(map[string]*bucket)
}
