package pressroom

import (
	"sync"
	"time"
)

// BlogCache is an in-memory cache of published blogs with a TTL, serving
// the public reader without a database round trip per request. Writes to
// blogs invalidate it; view-counter bumps do not (a slightly stale view
// count on the public page is acceptable).
type BlogCache struct {
	mu      sync.RWMutex
	blogs   []Blog
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewBlogCache creates a BlogCache backed by the given Store.
func NewBlogCache(s *Store, ttl time.Duration) *BlogCache {
	return &BlogCache{store: s, ttl: ttl}
}

func (c *BlogCache) valid() bool {
	return c.blogs != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *BlogCache) Invalidate() {
	c.mu.Lock()
	c.blogs = nil
	c.mu.Unlock()
}

// ensureLoaded returns the cached blogs after refreshing when stale.
// It tries a read lock first; a write lock is only taken for the reload.
func (c *BlogCache) ensureLoaded() ([]Blog, error) {
	c.mu.RLock()
	if c.valid() {
		blogs := c.blogs
		c.mu.RUnlock()
		return blogs, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.blogs, nil
	}
	blogs, err := c.store.ListPublishedBlogs()
	if err != nil {
		return nil, err
	}
	if blogs == nil {
		blogs = []Blog{}
	}
	c.blogs = blogs
	c.fetched = time.Now()
	return blogs, nil
}

// ListPublished returns published blogs, newest first.
func (c *BlogCache) ListPublished() ([]Blog, error) {
	return c.ensureLoaded()
}

// GetBySlug returns a single published blog by slug from the cache.
func (c *BlogCache) GetBySlug(slug string) (Blog, error) {
	blogs, err := c.ensureLoaded()
	if err != nil {
		return Blog{}, err
	}
	for _, b := range blogs {
		if b.Slug == slug {
			return b, nil
		}
	}
	return Blog{}, ErrNotFound
}
