package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	cache := &Cache{Dir: t.TempDir(), UserId: 42}
	list := []types.Bookmark{
		mkBookmark("a", time.Now().Truncate(time.Millisecond)),
		mkBookmark("b", time.Now().Add(-time.Hour).Truncate(time.Millisecond)),
	}

	before := time.Now()
	cache.Save(list)

	loaded, capturedAt, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, ids(list), ids(loaded))
	assert.False(t, capturedAt.Before(before.Truncate(time.Millisecond)))
}

func TestCacheMissingFile(t *testing.T) {
	cache := &Cache{Dir: t.TempDir(), UserId: 1}
	_, _, ok := cache.Load()
	assert.False(t, ok)
}

func TestCacheCorruptPayloadIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	cache := &Cache{Dir: dir, UserId: 1}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bookmarks-1.json"), []byte("{not json"), 0o600))

	_, _, ok := cache.Load()
	assert.False(t, ok)
}

func TestCacheIsScopedPerUser(t *testing.T) {
	dir := t.TempDir()
	first := &Cache{Dir: dir, UserId: 1}
	second := &Cache{Dir: dir, UserId: 2}

	first.Save([]types.Bookmark{mkBookmark("mine", time.Now())})

	_, _, ok := second.Load()
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	cache := &Cache{Dir: t.TempDir(), UserId: 1}
	cache.Save([]types.Bookmark{mkBookmark("a", time.Now())})

	cache.Clear()
	cache.Clear() // second clear is a no-op

	_, _, ok := cache.Load()
	assert.False(t, ok)
}
