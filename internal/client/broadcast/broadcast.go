// Package broadcast lets bookmark client processes on the same machine
// notify each other through files in the shared state directory. Each
// process publishes by atomically rewriting a well-known file and learns
// about other processes' writes through a filesystem watcher.
package broadcast

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/prasannakumar32/smart-bookmark/internal/logging"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

const (
	snapshotFile = "bookmarks-broadcast.json"
	authFile     = "auth-event.json"

	AuthSignedIn  = "SIGNED_IN"
	AuthSignedOut = "SIGNED_OUT"
)

// SnapshotMessage carries a full bookmark list from one process to its
// siblings. Timestamp is epoch milliseconds at publish time; receivers use
// it to discard stale messages.
type SnapshotMessage struct {
	Origin    string           `json:"origin"`
	Data      []types.Bookmark `json:"data"`
	Timestamp int64            `json:"timestamp"`
}

// AuthMessage tells sibling processes the user signed in or out.
type AuthMessage struct {
	Origin    string `json:"origin"`
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
}

// Bus publishes and receives broadcast messages. A Bus ignores messages
// carrying its own origin id, so a publish never loops back into the
// process that sent it.
type Bus struct {
	dir    string
	origin string

	mu         sync.Mutex
	onSnapshot func(SnapshotMessage)
	onAuth     func(AuthMessage)

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

func NewBus(stateDir string) *Bus {
	return &Bus{
		dir:    stateDir,
		origin: uuid.NewString(),
		done:   make(chan struct{}),
	}
}

// Origin returns this process's broadcast identity.
func (b *Bus) Origin() string {
	return b.origin
}

func (b *Bus) OnSnapshot(handler func(SnapshotMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onSnapshot = handler
}

func (b *Bus) OnAuth(handler func(AuthMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onAuth = handler
}

// Start begins watching the state directory. Handlers registered via
// OnSnapshot/OnAuth run on the watcher goroutine.
func (b *Bus) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(b.dir); err != nil {
		watcher.Close()
		return err
	}
	b.watcher = watcher

	go b.watch(ctx)
	return nil
}

func (b *Bus) Close() {
	b.once.Do(func() {
		close(b.done)
		if b.watcher != nil {
			b.watcher.Close()
		}
	})
}

// PublishSnapshot broadcasts the current bookmark list to sibling processes.
func (b *Bus) PublishSnapshot(bookmarks []types.Bookmark) {
	b.write(snapshotFile, SnapshotMessage{
		Origin:    b.origin,
		Data:      bookmarks,
		Timestamp: time.Now().UnixMilli(),
	})
}

// PublishAuth broadcasts a sign-in or sign-out to sibling processes.
func (b *Bus) PublishAuth(event string) {
	b.write(authFile, AuthMessage{
		Origin:    b.origin,
		Event:     event,
		Timestamp: time.Now().UnixMilli(),
	})
}

// write replaces the broadcast file atomically. The rename is what the
// sibling watchers observe; a partially written file is never visible.
func (b *Bus) write(name string, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		logging.Logger.Errorw("encode broadcast", "file", name, "error", err)
		return
	}

	target := filepath.Join(b.dir, name)
	tmp, err := os.CreateTemp(b.dir, name+".tmp-*")
	if err != nil {
		logging.Logger.Errorw("write broadcast", "file", name, "error", err)
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
		logging.Logger.Errorw("write broadcast", "file", name, "error", err)
	}
}

func (b *Bus) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			switch filepath.Base(event.Name) {
			case snapshotFile:
				b.deliverSnapshot(event.Name)
			case authFile:
				b.deliverAuth(event.Name)
			}
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			logging.Logger.Warnw("broadcast watcher", "error", err)
		}
	}
}

func (b *Bus) deliverSnapshot(path string) {
	var message SnapshotMessage
	if !b.read(path, &message) || message.Origin == b.origin {
		return
	}
	b.mu.Lock()
	handler := b.onSnapshot
	b.mu.Unlock()
	if handler != nil {
		handler(message)
	}
}

func (b *Bus) deliverAuth(path string) {
	var message AuthMessage
	if !b.read(path, &message) || message.Origin == b.origin {
		return
	}
	b.mu.Lock()
	handler := b.onAuth
	b.mu.Unlock()
	if handler != nil {
		handler(message)
	}
}

// read loads and decodes a broadcast file. Corrupt or missing payloads are
// dropped; a malformed message from one process must not take down the
// others.
func (b *Bus) read(path string, out interface{}) bool {
	payload, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		logging.Logger.Debugw("discarding malformed broadcast", "file", filepath.Base(path), "error", err)
		return false
	}
	return true
}
