// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package pattern

import (
	"container/list"
	"regexp"
	"sync"
)

// defaultCacheSize bounds the number of distinct (pattern, Mode) pairs kept
// compiled at once. A shell glob-expanding a directory, or a case statement
// matched against many inputs, tends to reuse a small, fixed set of
// patterns; this is large enough to hold that working set without letting
// a pathological script (one that builds a fresh pattern string per
// iteration) grow the cache without bound.
const defaultCacheSize = 128

type cacheKey struct {
	pat  string
	mode Mode
}

// cache is an LRU cache of compiled patterns, keyed on the exact (source,
// Mode) pair passed to [Compile]. The zero value is ready to use.
type cache struct {
	mu       sync.Mutex
	size     int
	ll       *list.List
	elements map[cacheKey]*list.Element
}

type cacheEntry struct {
	key cacheKey
	rx  *regexp.Regexp
	err error
}

func newCache(size int) *cache {
	return &cache{
		size:     size,
		ll:       list.New(),
		elements: make(map[cacheKey]*list.Element),
	}
}

func (c *cache) get(key cacheKey) (*regexp.Regexp, error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.elements[key]
	if !ok {
		return nil, nil, false
	}
	c.ll.MoveToFront(el)
	entry := el.Value.(*cacheEntry)
	return entry.rx, entry.err, true
}

func (c *cache) put(key cacheKey, rx *regexp.Regexp, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.elements[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*cacheEntry).rx = rx
		el.Value.(*cacheEntry).err = err
		return
	}
	el := c.ll.PushFront(&cacheEntry{key: key, rx: rx, err: err})
	c.elements[key] = el
	for c.ll.Len() > c.size {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.elements, oldest.Value.(*cacheEntry).key)
	}
}

var defaultCache = newCache(defaultCacheSize)

// Compile is [Regexp] followed by [regexp.Compile], with the result cached
// by the exact (pat, mode) pair: a repeated call with the same pattern and
// mode returns the same compiled [regexp.Regexp] without re-translating or
// re-compiling it. The cache is process-wide and safe for concurrent use.
func Compile(pat string, mode Mode) (*regexp.Regexp, error) {
	key := cacheKey{pat: pat, mode: mode}
	if rx, err, ok := defaultCache.get(key); ok {
		return rx, err
	}
	expr, err := Regexp(pat, mode)
	if err != nil {
		defaultCache.put(key, nil, err)
		return nil, err
	}
	rx, err := regexp.Compile(expr)
	defaultCache.put(key, rx, err)
	return rx, err
}
