package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/logging"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

// Cache persists the last observed bookmark list for one user. It is
// advisory: the server is authoritative, the cache only masks startup
// latency. Every error here is logged and swallowed; a broken cache must
// never break the client.
type Cache struct {
	Dir    string
	UserId types.UserId
}

type cacheEntry struct {
	Data      []types.Bookmark `json:"data"`
	Timestamp int64            `json:"timestamp"`
}

func (c *Cache) path() string {
	return filepath.Join(c.Dir, fmt.Sprintf("bookmarks-%d.json", c.UserId))
}

func (c *Cache) Save(bookmarks []types.Bookmark) {
	payload, err := json.Marshal(cacheEntry{
		Data:      bookmarks,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		logging.Logger.Errorw("encode bookmark cache", "error", err)
		return
	}

	target := c.path()
	tmp, err := os.CreateTemp(c.Dir, "bookmarks-cache-*")
	if err != nil {
		logging.Logger.Warnw("write bookmark cache", "error", err)
		return
	}
	_, err = tmp.Write(payload)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), target)
	}
	if err != nil {
		os.Remove(tmp.Name())
		logging.Logger.Warnw("write bookmark cache", "error", err)
	}
}

// Load returns the cached list and its capture time. ok is false when there
// is no usable cache: missing file and corrupt payload look the same to the
// caller.
func (c *Cache) Load() (bookmarks []types.Bookmark, capturedAt time.Time, ok bool) {
	payload, err := os.ReadFile(c.path())
	if err != nil {
		return nil, time.Time{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		logging.Logger.Debugw("discarding corrupt bookmark cache", "error", err)
		return nil, time.Time{}, false
	}
	return entry.Data, time.UnixMilli(entry.Timestamp), true
}

func (c *Cache) Clear() {
	if err := os.Remove(c.path()); err != nil && !os.IsNotExist(err) {
		logging.Logger.Warnw("clear bookmark cache", "error", err)
	}
}
