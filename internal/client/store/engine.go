package store

import (
	"sync"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/feed"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

// FreshnessWindow bounds how old a sibling-process snapshot may be and
// still be applied. Anything older is treated as stale history that must
// not resurrect deleted records.
const FreshnessWindow = 10 * time.Second

// snapshotPublisher is the slice of the broadcast bus the engine needs.
type snapshotPublisher interface {
	PublishSnapshot(bookmarks []types.Bookmark)
}

// Engine owns the in-memory bookmark list for one process and merges the
// four input channels into it: optimistic local writes, push feed events,
// poll snapshots and sibling-process broadcasts. Resolution is last writer
// wins per id; ordering is creation time descending. No other component
// touches the list directly.
type Engine struct {
	mu             sync.Mutex
	list           []types.Bookmark
	lastApplied    time.Time
	lastPollIssued time.Time

	cache *Cache
	bus   snapshotPublisher

	// onChange runs after every state change, outside the lock, with a
	// copy of the new list.
	onChange func([]types.Bookmark)

	now func() time.Time
}

func NewEngine(cache *Cache, bus snapshotPublisher) *Engine {
	return &Engine{
		cache: cache,
		bus:   bus,
		now:   time.Now,
	}
}

func (e *Engine) OnChange(handler func([]types.Bookmark)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = handler
}

// Bootstrap seeds the list from the local cache so the user sees data
// before the first server round-trip. No broadcast: siblings already have
// their own cache.
func (e *Engine) Bootstrap() bool {
	if e.cache == nil {
		return false
	}
	bookmarks, capturedAt, ok := e.cache.Load()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.list = bookmarks
	e.lastApplied = capturedAt
	e.mu.Unlock()
	e.notify()
	return true
}

// List returns a copy of the current list, newest first.
func (e *Engine) List() []types.Bookmark {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// ApplyLocalInsert prepends an optimistic record before the server
// confirms it. Inserting an id already present is a no-op, which guards
// against a double apply when the push feed echoes our own write.
func (e *Engine) ApplyLocalInsert(bookmark types.Bookmark) {
	e.mu.Lock()
	if e.indexOf(bookmark.Id) >= 0 {
		e.mu.Unlock()
		return
	}
	e.list = append([]types.Bookmark{bookmark}, e.list...)
	e.commitLocked(true)
	e.notify()
}

// ConfirmLocalInsert swaps the provisional record for the server-assigned
// one once the write succeeds.
func (e *Engine) ConfirmLocalInsert(provisionalId types.BookmarkId, confirmed types.Bookmark) {
	e.mu.Lock()
	i := e.indexOf(provisionalId)
	if i < 0 {
		// The provisional entry is gone (poll snapshot replaced the
		// list, or the user deleted it mid-flight). Fall back to an
		// idempotent insert of the confirmed record.
		if e.indexOf(confirmed.Id) >= 0 {
			e.mu.Unlock()
			return
		}
		e.list = append([]types.Bookmark{confirmed}, e.list...)
	} else {
		e.list[i] = confirmed
	}
	e.commitLocked(true)
	e.notify()
}

// RollbackLocalInsert removes a provisional record after the server
// rejected the write.
func (e *Engine) RollbackLocalInsert(provisionalId types.BookmarkId) {
	e.removeById(provisionalId)
}

// ApplyLocalDelete removes a record immediately, independent of server
// confirmation. Absent ids are a no-op.
func (e *Engine) ApplyLocalDelete(id types.BookmarkId) {
	e.removeById(id)
}

func (e *Engine) removeById(id types.BookmarkId) {
	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.list = append(e.list[:i], e.list[i+1:]...)
	e.commitLocked(true)
	e.notify()
}

// ApplyRemoteEvent folds one push-feed event into the list: insert
// prepends unless the id is already held, update replaces in place, delete
// removes by id. All three are no-ops when they have nothing to do.
func (e *Engine) ApplyRemoteEvent(event feed.Event) {
	e.mu.Lock()
	changed := false
	switch event.Type {
	case feed.ChangeInsert:
		if event.Bookmark != nil && e.indexOf(event.Bookmark.Id) < 0 {
			e.list = append([]types.Bookmark{*event.Bookmark}, e.list...)
			changed = true
		}
	case feed.ChangeUpdate:
		if event.Bookmark != nil {
			if i := e.indexOf(event.Bookmark.Id); i >= 0 {
				e.list[i] = *event.Bookmark
				changed = true
			}
		}
	case feed.ChangeDelete:
		if i := e.indexOf(event.Id); i >= 0 {
			e.list = append(e.list[:i], e.list[i+1:]...)
			changed = true
		}
	}
	if !changed {
		e.mu.Unlock()
		return
	}
	e.commitLocked(true)
	e.notify()
}

// ApplyPollSnapshot replaces the list wholesale with a poll result.
// issuedAt is the time the fetch was started: a response that was issued
// before an already-applied one arrives too late and is dropped, so a slow
// early poll can never clobber a fresher state.
func (e *Engine) ApplyPollSnapshot(list []types.Bookmark, issuedAt time.Time) {
	e.mu.Lock()
	if issuedAt.Before(e.lastPollIssued) {
		e.mu.Unlock()
		return
	}
	e.lastPollIssued = issuedAt
	e.list = list
	e.commitLocked(true)
	e.notify()
}

// ApplyBroadcast accepts a full snapshot from a sibling process. It is
// applied only when strictly newer than the engine's last applied change
// and within the freshness window; otherwise it is stale cross-process
// history and dropped. The cache is updated but no re-broadcast happens,
// or two processes would ping-pong snapshots forever.
func (e *Engine) ApplyBroadcast(snapshot []types.Bookmark, timestamp time.Time) {
	e.mu.Lock()
	if !timestamp.After(e.lastApplied) || e.now().Sub(timestamp) > FreshnessWindow {
		e.mu.Unlock()
		return
	}
	e.list = snapshot
	e.commitLocked(false)
	e.notify()
}

// Clear empties the in-memory list and the cache, used on sign-out.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.list = nil
	e.lastApplied = e.now()
	if e.cache != nil {
		e.cache.Clear()
	}
	e.mu.Unlock()
	e.notify()
}

// commitLocked records the mutation, persists the cache and optionally
// broadcasts to sibling processes. Called with mu held; releases it.
func (e *Engine) commitLocked(broadcast bool) {
	e.lastApplied = e.now()
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if e.cache != nil {
		e.cache.Save(snapshot)
	}
	if broadcast && e.bus != nil {
		e.bus.PublishSnapshot(snapshot)
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	handler := e.onChange
	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	if handler != nil {
		handler(snapshot)
	}
}

func (e *Engine) snapshotLocked() []types.Bookmark {
	snapshot := make([]types.Bookmark, len(e.list))
	copy(snapshot, e.list)
	return snapshot
}

func (e *Engine) indexOf(id types.BookmarkId) int {
	for i, b := range e.list {
		if b.Id == id {
			return i
		}
	}
	return -1
}
