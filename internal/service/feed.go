package service

import (
	gocontext "context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/prasannakumar32/smart-bookmark/internal/auth/context"
	"github.com/prasannakumar32/smart-bookmark/internal/feed"
)

const feedWriteTimeout = 5 * time.Second

// Feed streams bookmark change events to a connected client over a
// WebSocket. Each connection gets its own subscription to the owner's
// change channel; the connection carries server-to-client traffic only.
type Feed struct {
	Broker *feed.Broker
}

func (f *Feed) Subscribe(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	logger := context.Logger(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Non-browser clients authenticate with a bearer token, so the
		// Origin header check does not apply.
		InsecureSkipVerify: true,
	})
	if err != nil {
		logger.Errorw("websocket upgrade", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx, cancel := gocontext.WithCancel(r.Context())
	defer cancel()

	events, stop, err := f.Broker.Subscribe(ctx, user.ID)
	if err != nil {
		logger.Errorw("feed subscribe", "error", err, "user", user.ID)
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer stop()

	logger.Infow("feed connected", "user", user.ID)

	// Clients never send data frames; the read loop only notices the
	// connection going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Infow("feed disconnected", "user", user.ID)
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			payload, err := event.Encode()
			if err != nil {
				logger.Errorw("encode feed event", "error", err)
				continue
			}
			writeCtx, writeCancel := gocontext.WithTimeout(ctx, feedWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			writeCancel()
			if err != nil {
				logger.Infow("feed write failed", "user", user.ID, "error", err)
				return
			}
		}
	}
}
