package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/internal/lang"
	"github.com/codescope/codescope/internal/metrics"
)

func entry(language string) Entry {
	return Entry{
		Record:  &lang.SymbolRecord{Language: language},
		Metrics: metrics.NodeMetrics{Lines: 1},
	}
}

func TestHash(t *testing.T) {
	a := Hash([]byte("hello"))
	b := Hash([]byte("hello"))
	c := Hash([]byte("hello "))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	// Empty content hashes too; empty files are legitimate cache entries.
	assert.Len(t, Hash(nil), 64)
}

func TestCache_GetAddStats(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)

	h := Hash([]byte("content"))
	_, ok := c.Get(h)
	assert.False(t, ok)

	c.Add(h, entry("python"))
	got, ok := c.Get(h)
	require.True(t, ok)
	assert.Equal(t, "python", got.Record.Language)
	assert.Equal(t, 1, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCache_Eviction(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Add("h1", entry("a"))
	c.Add("h2", entry("b"))
	c.Add("h3", entry("c")) // evicts h1

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("h1")
	assert.False(t, ok)
	_, ok = c.Get("h3")
	assert.True(t, ok)
}

func TestCache_Purge(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)
	c.Add("h1", entry("a"))
	c.Purge()
	assert.Zero(t, c.Len())
}

func TestNew_DefaultSize(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)
	assert.NotNil(t, c)

	c, err = New(-5)
	require.NoError(t, err)
	assert.NotNil(t, c)
}
