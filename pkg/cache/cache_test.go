package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set("k", []byte("value"), time.Minute))

	got, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	_, err = c.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, c.Delete("k"))
	_, err = c.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set("k", []byte("value"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCacheOverwrite(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set("k", []byte("old"), time.Minute))
	require.NoError(t, c.Set("k", []byte("new"), time.Minute))

	got, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestBadgerCache(t *testing.T) {
	c, err := NewBadgerCache(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("k", []byte("value"), time.Minute))

	got, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	_, err = c.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, c.Delete("k"))
	_, err = c.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestResponseKey(t *testing.T) {
	a := ResponseKey("gpt-4o", "prompt text")
	b := ResponseKey("gpt-4o", "prompt text")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, ResponseKey("gpt-4o-mini", "prompt text"))
	assert.NotEqual(t, a, ResponseKey("gpt-4o", "other prompt"))

	// Model and prompt are delimited, so shifting bytes between them
	// changes the key.
	assert.NotEqual(t, ResponseKey("ab", "c"), ResponseKey("a", "bc"))
}
