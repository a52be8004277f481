package pubqueue

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/eringen/pubqueue/content"
)

// EntryCache is an in-memory cache of published entries and tags with TTL.
type EntryCache struct {
	mu      sync.RWMutex
	entries []content.Entry
	tags    []string
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewEntryCache creates an EntryCache backed by the given Store.
func NewEntryCache(s *Store, ttl time.Duration) *EntryCache {
	return &EntryCache{store: s, ttl: ttl}
}

func (c *EntryCache) valid() bool {
	return c.entries != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *EntryCache) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *EntryCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	entries, err := c.store.ListPublished(ctx)
	if err != nil {
		return err
	}
	tags, err := c.store.ListTags(ctx)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []content.Entry{}
	}
	c.entries = entries
	c.tags = tags
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached entries and tags after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *EntryCache) ensureLoaded(ctx context.Context) ([]content.Entry, []string, error) {
	c.mu.RLock()
	if c.valid() {
		entries, tags := c.entries, c.tags
		c.mu.RUnlock()
		return entries, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.entries, c.tags, nil
}

// List returns published entries of the given types (all types when none
// are given), optionally filtered by tag.
func (c *EntryCache) List(ctx context.Context, tag string, types ...content.Type) ([]content.Entry, error) {
	entries, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	normalized := normalizeTag(tag)
	var filtered []content.Entry
	for _, e := range entries {
		if len(types) > 0 && !slices.Contains(types, e.Type) {
			continue
		}
		if normalized != "" && !hasTag(e, normalized) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

// ListTags returns all unique tags from published entries.
func (c *EntryCache) ListTags(ctx context.Context) ([]string, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

// Get returns a single published entry by type and slug from the cache.
func (c *EntryCache) Get(ctx context.Context, t content.Type, slug string) (content.Entry, error) {
	entries, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return content.Entry{}, err
	}
	for _, e := range entries {
		if e.Type == t && e.Slug == slug {
			return e, nil
		}
	}
	return content.Entry{}, ErrNotFound
}

func hasTag(e content.Entry, normalized string) bool {
	for _, t := range e.Tags {
		if normalizeTag(t) == normalized {
			return true
		}
	}
	return false
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
