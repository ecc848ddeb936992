package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/prasannakumar32/smart-bookmark/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSubscriberDeliversEvents(t *testing.T) {
	event, err := feed.Insert(mkBookmark("pushed", time.Now())).Encode()
	require.NoError(t, err)

	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		conn.Write(ctx, websocket.MessageText, event)
		// Hold the connection open until the client goes away.
		conn.Read(ctx)
	}))
	defer srv.Close()

	events := make(chan feed.Event, 1)
	up := make(chan struct{}, 1)
	subscriber := &FeedSubscriber{
		URL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
		Token:   "token-1",
		OnUp:    func() { up <- struct{}{} },
		OnEvent: func(e feed.Event) { events <- e },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go subscriber.subscribe(ctx)

	select {
	case <-up:
	case <-ctx.Done():
		t.Fatal("subscription never came up")
	}
	select {
	case e := <-events:
		assert.Equal(t, feed.ChangeInsert, e.Type)
		require.NotNil(t, e.Bookmark)
		assert.Equal(t, "pushed", string(e.Bookmark.Id))
	case <-ctx.Done():
		t.Fatal("no event delivered")
	}
	assert.Equal(t, "Bearer token-1", gotAuth.Load())
}

func TestFeedSubscriberSignalsDownOnConnectFailure(t *testing.T) {
	down := make(chan struct{}, 1)
	subscriber := &FeedSubscriber{
		// Nothing listens here.
		URL:    "ws://127.0.0.1:1/api/v1/bookmarks/feed",
		Token:  "token-1",
		OnDown: func() { down <- struct{}{} },
		OnUp:   func() { t.Error("must not come up") },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	subscriber.subscribe(ctx)

	select {
	case <-down:
	default:
		t.Fatal("OnDown not signalled")
	}
}

func TestFeedSubscriberSkipsMalformedEvents(t *testing.T) {
	good, err := feed.Delete("del-1").Encode()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		conn.Write(ctx, websocket.MessageText, []byte("not json"))
		conn.Write(ctx, websocket.MessageText, good)
		conn.Read(ctx)
	}))
	defer srv.Close()

	events := make(chan feed.Event, 2)
	subscriber := &FeedSubscriber{
		URL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
		Token:   "token-1",
		OnEvent: func(e feed.Event) { events <- e },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go subscriber.subscribe(ctx)

	select {
	case e := <-events:
		assert.Equal(t, feed.ChangeDelete, e.Type)
		assert.Equal(t, "del-1", string(e.Id))
	case <-ctx.Done():
		t.Fatal("valid event after malformed one was not delivered")
	}
}
