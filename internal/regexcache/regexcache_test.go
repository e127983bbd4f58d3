package regexcache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/allyourbase/dialplan/internal/testutil"
)

func TestFullAnchorsBothEnds(t *testing.T) {
	t.Parallel()
	c, err := New(10)
	testutil.NoError(t, err)

	testutil.True(t, c.MatchFull(`\d{3}`, "650"))
	testutil.False(t, c.MatchFull(`\d{3}`, "6502"))
	testutil.False(t, c.MatchFull(`1|23`, "123"))
	testutil.True(t, c.MatchFull(`1|23`, "23"))
}

func TestPrefixAnchorsStartOnly(t *testing.T) {
	t.Parallel()
	c, err := New(10)
	testutil.NoError(t, err)

	testutil.True(t, c.MatchPrefix(`6[05]`, "6502530000"))
	testutil.False(t, c.MatchPrefix(`25`, "6502530000"))
}

func TestCompiledPatternsAreReused(t *testing.T) {
	t.Parallel()
	c, err := New(10)
	testutil.NoError(t, err)

	a := c.Full(`\d+`)
	b := c.Full(`\d+`)
	testutil.True(t, a == b, "second lookup should return the cached matcher")

	st := c.Stats()
	testutil.Equal(t, uint64(1), st.Hits)
	testutil.Equal(t, uint64(1), st.Misses)
}

func TestModesAreCachedSeparately(t *testing.T) {
	t.Parallel()
	c, err := New(10)
	testutil.NoError(t, err)

	c.Full(`\d`)
	c.Prefix(`\d`)
	c.Raw(`\d`)
	testutil.Equal(t, 3, c.Stats().Len)
}

func TestEvictionIsBounded(t *testing.T) {
	t.Parallel()
	c, err := New(2)
	testutil.NoError(t, err)

	for i := range 5 {
		c.Full(fmt.Sprintf(`%d`, i))
	}
	testutil.Equal(t, 2, c.Stats().Len)

	// Evicted patterns recompile transparently.
	testutil.True(t, c.MatchFull(`0`, "0"))
}

func TestDefaultSize(t *testing.T) {
	t.Parallel()
	c, err := New(0)
	testutil.NoError(t, err)
	for i := range DefaultSize + 10 {
		c.Raw(fmt.Sprintf(`x%d`, i))
	}
	testutil.Equal(t, DefaultSize, c.Stats().Len)
}

func TestConcurrentLookups(t *testing.T) {
	t.Parallel()
	c, err := New(4)
	testutil.NoError(t, err)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				p := fmt.Sprintf(`%d\d*`, (g+i)%6)
				if !c.MatchFull(p, fmt.Sprintf("%d123", (g+i)%6)) {
					t.Errorf("pattern %s did not match", p)
				}
			}
		}()
	}
	wg.Wait()
}
