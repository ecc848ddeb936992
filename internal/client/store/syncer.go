package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prasannakumar32/smart-bookmark/internal/client/api"
	"github.com/prasannakumar32/smart-bookmark/internal/client/broadcast"
	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/logging"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

// Syncer wires the engine to its inputs: the REST API for mutations, the
// push feed as the primary change source, the poller as its fallback and
// the broadcast bus for sibling processes.
type Syncer struct {
	Api    *api.Client
	Engine *Engine
	Bus    *broadcast.Bus
	Poller *Poller
}

func NewSyncer(client *api.Client, engine *Engine, bus *broadcast.Bus) *Syncer {
	s := &Syncer{
		Api:    client,
		Engine: engine,
		Bus:    bus,
	}
	s.Poller = &Poller{
		Engine: engine,
		Fetch:  client.ListBookmarks,
	}
	return s
}

// Run drives the sync loop until ctx is cancelled: bootstrap from cache,
// one initial fetch, then the push feed with the poller standing in
// whenever the feed is down.
func (s *Syncer) Run(ctx context.Context) error {
	s.Engine.Bootstrap()

	if s.Bus != nil {
		s.Bus.OnSnapshot(func(message broadcast.SnapshotMessage) {
			s.Engine.ApplyBroadcast(message.Data, time.UnixMilli(message.Timestamp))
		})
	}

	issuedAt := time.Now()
	list, err := s.Api.ListBookmarks(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrNotAuthenticated) {
			return err
		}
		// The cache already gave the user something to look at; the
		// feed or the poller will catch the list up.
		logging.Logger.Warnw("initial bookmark fetch failed", "error", err)
	} else {
		s.Engine.ApplyPollSnapshot(list, issuedAt)
	}

	feedURL, err := s.Api.FeedURL()
	if err != nil {
		return err
	}
	subscriber := &FeedSubscriber{
		URL:     feedURL,
		Token:   s.Api.Token,
		OnUp:    s.Poller.Stop,
		OnDown:  func() { s.Poller.Start(ctx) },
		OnEvent: s.Engine.ApplyRemoteEvent,
	}
	subscriber.Run(ctx)
	s.Poller.Stop()
	return ctx.Err()
}

// Add applies an optimistic insert, then writes through to the server. On
// failure the provisional record is rolled back rather than left dangling:
// a bookmark the server refused would otherwise sit in the list until the
// next full fetch silently dropped it.
func (s *Syncer) Add(ctx context.Context, title, url string) (*types.Bookmark, error) {
	provisional := types.Bookmark{
		Id:        types.BookmarkId("pending-" + uuid.NewString()),
		Title:     title,
		Url:       url,
		CreatedAt: time.Now(),
	}
	s.Engine.ApplyLocalInsert(provisional)

	created, err := s.Api.CreateBookmark(ctx, types.CreateBookmarkRequest{
		Title: title,
		Url:   url,
	})
	if err != nil {
		s.Engine.RollbackLocalInsert(provisional.Id)
		return nil, errors.Public(err, "Failed to add bookmark")
	}
	s.Engine.ConfirmLocalInsert(provisional.Id, *created)
	return created, nil
}

// Remove applies an optimistic delete, then writes through. A failed
// delete leaves the record removed locally; the next poll or push event
// restores it if the server still has it.
func (s *Syncer) Remove(ctx context.Context, id types.BookmarkId) error {
	s.Engine.ApplyLocalDelete(id)
	if err := s.Api.DeleteBookmark(ctx, id); err != nil {
		return errors.Public(err, "Failed to delete bookmark")
	}
	return nil
}
