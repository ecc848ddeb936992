package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerReplacesListEachTick(t *testing.T) {
	engine, _ := newTestEngine(t)
	var calls atomic.Int32
	poller := &Poller{
		Engine:   engine,
		Interval: 10 * time.Millisecond,
		Fetch: func(ctx context.Context) ([]types.Bookmark, error) {
			calls.Add(1)
			return []types.Bookmark{mkBookmark("polled", time.Now())}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	require.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"polled"}, ids(engine.List()))
	assert.True(t, poller.Running())
}

func TestPollerStopHaltsFetching(t *testing.T) {
	engine, _ := newTestEngine(t)
	var calls atomic.Int32
	poller := &Poller{
		Engine:   engine,
		Interval: 5 * time.Millisecond,
		Fetch: func(ctx context.Context) ([]types.Bookmark, error) {
			calls.Add(1)
			return nil, nil
		},
	}

	poller.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	poller.Stop()
	assert.False(t, poller.Running())

	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), settled+1, "at most one in-flight fetch may finish after Stop")
}

func TestPollerStartIsIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t)
	var calls atomic.Int32
	poller := &Poller{
		Engine:   engine,
		Interval: time.Hour,
		Fetch: func(ctx context.Context) ([]types.Bookmark, error) {
			calls.Add(1)
			return nil, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	poller.Start(ctx)
	poller.Start(ctx)
	defer poller.Stop()

	// Only the first Start launches a loop; each loop polls once
	// immediately.
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPollerFetchErrorKeepsState(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.ApplyLocalInsert(mkBookmark("existing", time.Now()))

	poller := &Poller{
		Engine:   engine,
		Interval: 5 * time.Millisecond,
		Fetch: func(ctx context.Context) ([]types.Bookmark, error) {
			return nil, errors.New("backend down")
		},
	}
	poller.Start(context.Background())
	time.Sleep(25 * time.Millisecond)
	poller.Stop()

	assert.Equal(t, []string{"existing"}, ids(engine.List()))
}
