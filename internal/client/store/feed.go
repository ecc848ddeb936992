package store

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/prasannakumar32/smart-bookmark/internal/feed"
	"github.com/prasannakumar32/smart-bookmark/internal/logging"
)

const reconnectDelay = 5 * time.Second

// FeedSubscriber maintains one WebSocket subscription to the server's
// change feed and reconnects on failure. Transitions between connected and
// degraded are reported through callbacks so the poller can take over as
// the truth source while the push channel is down.
type FeedSubscriber struct {
	URL   string
	Token string

	// OnUp runs after the subscription is established, OnDown after it is
	// lost. OnEvent runs for every decoded change event.
	OnUp    func()
	OnDown  func()
	OnEvent func(feed.Event)
}

// Run blocks until ctx is cancelled, cycling through connect, read and
// reconnect. The first connection attempt counts like any other: if it
// fails, OnDown fires and the subscriber retries after the delay.
func (s *FeedSubscriber) Run(ctx context.Context) {
	for {
		s.subscribe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *FeedSubscriber) subscribe(ctx context.Context) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.Token)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, s.URL, &websocket.DialOptions{
		HTTPHeader: header,
	})
	cancel()
	if err != nil {
		logging.Logger.Debugw("feed connect failed", "error", err)
		s.down()
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	logging.Logger.Debugw("feed connected")
	if s.OnUp != nil {
		s.OnUp()
	}

	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logging.Logger.Debugw("feed read failed", "error", err)
				s.down()
			}
			return
		}
		event, err := feed.Decode(payload)
		if err != nil {
			logging.Logger.Warnw("discarding malformed feed event", "error", err)
			continue
		}
		if s.OnEvent != nil {
			s.OnEvent(event)
		}
	}
}

func (s *FeedSubscriber) down() {
	if s.OnDown != nil {
		s.OnDown()
	}
}
