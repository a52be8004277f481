// Package mention parses compact entity references of the form
// @[Label](type:id) and resolves them to display metadata through a cache
// scoped to one admin session.
package mention

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/eringen/pubqueue/content"
)

var reToken = regexp.MustCompile(`@\[([^\]]*)\]\(([a-z]+):([A-Za-z0-9_-]+)\)`)

// Token is one reference found in a text.
type Token struct {
	Label string
	Type  content.Type
	ID    string
	Start int
	End   int
}

// Key is the cache key for the referenced entity.
func (t Token) Key() string { return Key(t.Type, t.ID) }

// Key joins a type and id as "type:id".
func Key(t content.Type, id string) string { return string(t) + ":" + id }

// Parse returns the well-formed tokens of text in order. References to
// unknown types are skipped.
func Parse(text string) []Token {
	var out []Token
	for _, m := range reToken.FindAllStringSubmatchIndex(text, -1) {
		typ, err := content.Parse(text[m[4]:m[5]])
		if err != nil {
			continue
		}
		out = append(out, Token{
			Label: text[m[2]:m[3]],
			Type:  typ,
			ID:    text[m[6]:m[7]],
			Start: m[0],
			End:   m[1],
		})
	}
	return out
}

// Meta is what a chip needs to render without refetching the entity.
type Meta struct {
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// Cache maps "type:id" to Meta.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Meta
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Meta)}
}

// Put records metadata for an entity.
func (c *Cache) Put(t content.Type, id string, m Meta) {
	c.mu.Lock()
	c.entries[Key(t, id)] = m
	c.mu.Unlock()
}

// Resolve looks up an entity.
func (c *Cache) Resolve(t content.Type, id string) (Meta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[Key(t, id)]
	return m, ok
}

// Len is the number of cached entities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Evict drops every entry.
func (c *Cache) Evict() {
	c.mu.Lock()
	c.entries = make(map[string]Meta)
	c.mu.Unlock()
}

// Expand replaces tokens with their cached label, or the inline label when
// the entity is not cached. A nil cache uses inline labels only.
func Expand(text string, c *Cache) string {
	tokens := Parse(text)
	if len(tokens) == 0 {
		return text
	}
	var b strings.Builder
	prev := 0
	for _, tok := range tokens {
		b.WriteString(text[prev:tok.Start])
		label := tok.Label
		if c != nil {
			if m, ok := c.Resolve(tok.Type, tok.ID); ok && m.Label != "" {
				label = m.Label
			}
		}
		b.WriteString("@" + label)
		prev = tok.End
	}
	b.WriteString(text[prev:])
	return b.String()
}

// Sessions hands out one Cache per session id.
type Sessions struct {
	mu     sync.Mutex
	caches map[string]*Cache
	seen   map[string]time.Time
}

// NewSessions returns an empty registry.
func NewSessions() *Sessions {
	return &Sessions{caches: make(map[string]*Cache), seen: make(map[string]time.Time)}
}

// For returns the cache of session sid, creating it on first use. Every
// call marks the session as seen.
func (s *Sessions) For(sid string) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[sid]
	if !ok {
		c = NewCache()
		s.caches[sid] = c
	}
	s.seen[sid] = time.Now()
	return c
}

// End evicts and forgets the cache of session sid.
func (s *Sessions) End(sid string) {
	s.mu.Lock()
	c, ok := s.caches[sid]
	delete(s.caches, sid)
	delete(s.seen, sid)
	s.mu.Unlock()
	if ok {
		c.Evict()
	}
}

// Sweep ends every session last seen before cutoff and returns how many
// were dropped. Sessions whose cookie expired never log out.
func (s *Sessions) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	var stale []*Cache
	for sid, at := range s.seen {
		if at.Before(cutoff) {
			stale = append(stale, s.caches[sid])
			delete(s.caches, sid)
			delete(s.seen, sid)
		}
	}
	s.mu.Unlock()
	for _, c := range stale {
		c.Evict()
	}
	return len(stale)
}

// Len is the number of live session caches.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.caches)
}
