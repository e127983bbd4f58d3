// Package regexcache memoizes compiled regular expressions drawn from
// numbering-plan metadata.
package regexcache

import (
	"fmt"
	"regexp"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the number of compiled patterns kept when no size is given.
const DefaultSize = 100

type mode uint8

const (
	modeFull mode = iota
	modePrefix
	modeRaw
)

type key struct {
	pattern string
	mode    mode
}

// Cache is a bounded LRU of compiled patterns. It is safe for concurrent use.
// An eviction only means the next lookup recompiles.
type Cache struct {
	entries *lru.Cache[key, *regexp.Regexp]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Len    int    `json:"len"`
}

// New creates a cache holding at most size compiled patterns.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[key, *regexp.Regexp](size)
	if err != nil {
		return nil, fmt.Errorf("creating pattern cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Full returns a matcher that must consume the whole input.
func (c *Cache) Full(pattern string) *regexp.Regexp {
	return c.get(key{pattern, modeFull})
}

// Prefix returns a matcher anchored at the start of the input only.
func (c *Cache) Prefix(pattern string) *regexp.Regexp {
	return c.get(key{pattern, modePrefix})
}

// Raw returns the pattern compiled as-is, for unanchored searches.
func (c *Cache) Raw(pattern string) *regexp.Regexp {
	return c.get(key{pattern, modeRaw})
}

// MatchFull reports whether s matches pattern in its entirety.
func (c *Cache) MatchFull(pattern, s string) bool {
	return c.Full(pattern).MatchString(s)
}

// MatchPrefix reports whether a prefix of s matches pattern.
func (c *Cache) MatchPrefix(pattern, s string) bool {
	return c.Prefix(pattern).MatchString(s)
}

// Stats returns a snapshot of the hit and miss counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.entries.Len()}
}

func (c *Cache) get(k key) *regexp.Regexp {
	if re, ok := c.entries.Get(k); ok {
		c.hits.Add(1)
		return re
	}
	c.misses.Add(1)
	re := regexp.MustCompile(anchor(k))
	c.entries.Add(k, re)
	return re
}

func anchor(k key) string {
	switch k.mode {
	case modeFull:
		return "^(?:" + k.pattern + ")$"
	case modePrefix:
		return "^(?:" + k.pattern + ")"
	default:
		return k.pattern
	}
}
