package broadcast

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBus(t *testing.T, ctx context.Context, dir string) *Bus {
	t.Helper()
	bus := NewBus(dir)
	require.NoError(t, bus.Start(ctx))
	t.Cleanup(bus.Close)
	return bus
}

func TestSnapshotReachesSiblingProcess(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := startBus(t, ctx, dir)
	receiver := startBus(t, ctx, dir)

	got := make(chan SnapshotMessage, 1)
	receiver.OnSnapshot(func(message SnapshotMessage) {
		select {
		case got <- message:
		default:
		}
	})

	list := []types.Bookmark{{Id: "a1", Title: "GitHub", Url: "https://github.com", CreatedAt: time.Now().UTC()}}
	sender.PublishSnapshot(list)

	select {
	case message := <-got:
		assert.Equal(t, sender.Origin(), message.Origin)
		require.Len(t, message.Data, 1)
		assert.Equal(t, "a1", string(message.Data[0].Id))
		assert.InDelta(t, time.Now().UnixMilli(), message.Timestamp, float64(5*time.Second/time.Millisecond))
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot broadcast not delivered")
	}
}

func TestOwnMessagesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := startBus(t, ctx, dir)
	bus.OnSnapshot(func(SnapshotMessage) {
		t.Error("a bus must not observe its own publish")
	})
	bus.OnAuth(func(AuthMessage) {
		t.Error("a bus must not observe its own publish")
	})

	bus.PublishSnapshot(nil)
	bus.PublishAuth(AuthSignedIn)
	time.Sleep(200 * time.Millisecond)
}

func TestSiblingDeleteArrivesAsSnapshot(t *testing.T) {
	// A delete in one process reaches the other as a snapshot that no
	// longer contains the record.
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tabA := startBus(t, ctx, dir)
	tabB := startBus(t, ctx, dir)

	got := make(chan SnapshotMessage, 2)
	tabB.OnSnapshot(func(message SnapshotMessage) { got <- message })

	// Tab A's engine deleted id "42" and republishes the remainder.
	tabA.PublishSnapshot([]types.Bookmark{{Id: "7", Title: "kept", Url: "https://example.com", CreatedAt: time.Now().UTC()}})

	select {
	case message := <-got:
		for _, b := range message.Data {
			assert.NotEqual(t, "42", string(b.Id))
		}
		require.Len(t, message.Data, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("delete snapshot not delivered")
	}
}

func TestSignOutBroadcast(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tabA := startBus(t, ctx, dir)
	tabB := startBus(t, ctx, dir)

	got := make(chan AuthMessage, 1)
	tabB.OnAuth(func(message AuthMessage) {
		select {
		case got <- message:
		default:
		}
	})

	tabA.PublishAuth(AuthSignedOut)

	select {
	case message := <-got:
		assert.Equal(t, AuthSignedOut, message.Event)
		assert.Equal(t, tabA.Origin(), message.Origin)
	case <-time.After(5 * time.Second):
		t.Fatal("auth broadcast not delivered")
	}
}

func TestCorruptPayloadIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	receiver := startBus(t, ctx, dir)
	sender := startBus(t, ctx, dir)

	got := make(chan SnapshotMessage, 1)
	receiver.OnSnapshot(func(message SnapshotMessage) {
		select {
		case got <- message:
		default:
		}
	})

	// A crashed writer left garbage behind. The watcher must survive it
	// and keep delivering later messages.
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFile), []byte("{torn write"), 0o600))
	time.Sleep(100 * time.Millisecond)

	sender.PublishSnapshot([]types.Bookmark{{Id: "ok", Title: "fine", Url: "https://example.com", CreatedAt: time.Now().UTC()}})

	select {
	case message := <-got:
		require.Len(t, message.Data, 1)
		assert.Equal(t, "ok", string(message.Data[0].Id))
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast after corrupt payload not delivered")
	}
}
