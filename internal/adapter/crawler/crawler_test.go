package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/internal/adapter/session/sessiontest"
)

const site = "https://example.test"

func newRule() *ScopeRule {
	return NewScopeRule(site, "en", nil)
}

func TestCrawl_ScopeExcludesOutOfScopePages(t *testing.T) {
	s := sessiontest.New().
		HTML(site+"/en", sessiontest.Links("/en/b", "/de/c")).
		HTML(site+"/en/b", sessiontest.Links("/en")).
		HTML(site+"/de/c", sessiontest.Links("/en/secret"))

	c := New(s, newRule(), Options{}, nil)
	visited, err := c.Crawl(context.Background(), site+"/en", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{site + "/en", site + "/en/b"}, visited)
	assert.NotContains(t, s.Gets(), site+"/de/c")
}

func TestCrawl_SeedOutOfScope(t *testing.T) {
	s := sessiontest.New().HTML(site+"/de", sessiontest.Links("/en/a"))

	c := New(s, newRule(), Options{}, nil)
	visited, err := c.Crawl(context.Background(), site+"/de", nil)
	require.NoError(t, err)

	assert.Empty(t, visited)
	assert.Empty(t, s.Gets())
}

func TestCrawl_BreadthFirstNoDuplicates(t *testing.T) {
	s := sessiontest.New().
		HTML(site+"/en", sessiontest.Links("/en/a", "/en/b", "/en/a#top")).
		HTML(site+"/en/a", sessiontest.Links("/en/c", "/en/b", "/en")).
		HTML(site+"/en/b", sessiontest.Links("/en/c", "/en/a")).
		HTML(site+"/en/c", sessiontest.Links("/en/a", "/en/b", "/en/c"))

	var counts []int
	c := New(s, newRule(), Options{}, nil)
	visited, err := c.Crawl(context.Background(), site+"/en", func(v, pending int, current string) {
		counts = append(counts, v)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{site + "/en", site + "/en/a", site + "/en/b", site + "/en/c"}, visited)
	assert.Equal(t, visited, s.Gets(), "each page fetched exactly once, in BFS order")

	seen := make(map[string]bool)
	for _, u := range visited {
		assert.False(t, seen[u], "duplicate %s", u)
		seen[u] = true
		assert.True(t, newRule().Allows(u))
	}
	for i := 1; i < len(counts); i++ {
		assert.GreaterOrEqual(t, counts[i], counts[i-1])
	}
}

func TestCrawl_FetchFailureStillVisited(t *testing.T) {
	s := sessiontest.New().
		HTML(site+"/en", sessiontest.Links("/en/broken", "/en/down", "/en/ok")).
		Set(site+"/en/broken", sessiontest.Page{Status: 500}).
		Set(site+"/en/down", sessiontest.Page{Err: errors.New("connection refused")}).
		HTML(site+"/en/ok", "<html></html>")

	c := New(s, newRule(), Options{}, nil)
	visited, err := c.Crawl(context.Background(), site+"/en", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{site + "/en", site + "/en/broken", site + "/en/down", site + "/en/ok"}, visited)
}

func TestCrawl_MaxPages(t *testing.T) {
	s := sessiontest.New().
		HTML(site+"/en", sessiontest.Links("/en/a", "/en/b")).
		HTML(site+"/en/a", "").
		HTML(site+"/en/b", "")

	c := New(s, newRule(), Options{MaxPages: 2}, nil)
	visited, err := c.Crawl(context.Background(), site+"/en", nil)
	require.NoError(t, err)
	assert.Len(t, visited, 2)
}

func TestCrawl_ContextCancelled(t *testing.T) {
	s := sessiontest.New().HTML(site+"/en", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(s, newRule(), Options{}, nil)
	_, err := c.Crawl(ctx, site+"/en", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
