package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/prasannakumar32/smart-bookmark/internal/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher is the write side of the change feed. The bookmark model emits
// an event here after every committed mutation.
type Publisher interface {
	Publish(ctx context.Context, userId types.UserId, event Event) error
}

// Broker fans row-change events out through Redis pub/sub, one channel per
// owner, so every server instance delivers the same per-user feed.
type Broker struct {
	Client *redis.Client
	Logger *zap.SugaredLogger
}

func channelFor(userId types.UserId) string {
	return fmt.Sprintf("feed:user:%d", userId)
}

func (b *Broker) Publish(ctx context.Context, userId types.UserId, event Event) error {
	data, err := event.Encode()
	if err != nil {
		return err
	}
	if err := b.Client.Publish(ctx, channelFor(userId), data).Err(); err != nil {
		return fmt.Errorf("publish feed event: %w", err)
	}
	return nil
}

// Subscribe opens the change feed for one user. Events arrive on the
// returned channel until ctx is cancelled or stop is called; the channel is
// closed afterwards. Payloads that fail to decode are logged and skipped.
func (b *Broker) Subscribe(ctx context.Context, userId types.UserId) (<-chan Event, func(), error) {
	pubsub := b.Client.Subscribe(ctx, channelFor(userId))
	// Force the subscription to be established before we report success.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe feed: %w", err)
	}

	events := make(chan Event)
	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(events)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				event, err := Decode([]byte(msg.Payload))
				if err != nil {
					b.Logger.Warnw("dropping malformed feed event", "error", err, "user", userId)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	return events, stop, nil
}
