// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package pattern

import (
	"regexp"
	"testing"

	qt "github.com/frankban/quicktest"
)

func mustCompileForTest(t *testing.T, expr string) *regexp.Regexp {
	t.Helper()
	rx, err := regexp.Compile(expr)
	qt.Assert(t, err, qt.IsNil)
	return rx
}

func TestCompileCachesByPatternAndMode(t *testing.T) {
	rx1, err := Compile("foo*bar", 0)
	qt.Assert(t, err, qt.IsNil)
	rx2, err := Compile("foo*bar", 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, rx1 == rx2, qt.IsTrue,
		qt.Commentf("Compile with the same (pattern, Mode) should return the cached *regexp.Regexp"))

	// Same pattern, different Mode: must not share the cached regexp.
	rx3, err := Compile("foo*bar", Filenames)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, rx1 == rx3, qt.Equals, false,
		qt.Commentf("Compile with different Modes should not share a cached *regexp.Regexp"))
}

func TestCompileMatches(t *testing.T) {
	rx, err := Compile("foo*bar", EntireString)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, rx.MatchString("foo-bar"), qt.IsTrue)
	qt.Assert(t, rx.MatchString("foo-bar-baz"), qt.Equals, false)
}

func TestCompileErrorIsCached(t *testing.T) {
	_, err1 := Compile("[", 0)
	qt.Assert(t, err1 == nil, qt.Equals, false)
	_, err2 := Compile("[", 0)
	qt.Assert(t, err2 == nil, qt.Equals, false)
}

func TestCacheEvictsLRU(t *testing.T) {
	c := newCache(2)
	rxA, _ := Regexp("a", 0)
	rxB, _ := Regexp("b", 0)
	rxC, _ := Regexp("c", 0)
	c.put(cacheKey{pat: "a"}, mustCompileForTest(t, rxA), nil)
	c.put(cacheKey{pat: "b"}, mustCompileForTest(t, rxB), nil)
	// touch "a" so "b" becomes the least recently used entry
	c.get(cacheKey{pat: "a"})
	c.put(cacheKey{pat: "c"}, mustCompileForTest(t, rxC), nil)

	_, _, ok := c.get(cacheKey{pat: "b"})
	qt.Assert(t, ok, qt.Equals, false)
	_, _, ok = c.get(cacheKey{pat: "a"})
	qt.Assert(t, ok, qt.IsTrue)
	_, _, ok = c.get(cacheKey{pat: "c"})
	qt.Assert(t, ok, qt.IsTrue)
}
