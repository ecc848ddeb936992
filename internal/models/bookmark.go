package models

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/feed"
	"github.com/prasannakumar32/smart-bookmark/internal/logging"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
	"github.com/prasannakumar32/smart-bookmark/internal/validations"
)

type Bookmark struct {
	BookmarkId types.BookmarkId
	UserId     types.UserId
	Title      string
	Url        string
	CreatedAt  time.Time
}

type BookmarkModel struct {
	Pool *pgxpool.Pool
	// Feed receives a change event after every committed mutation. The feed
	// is advisory: a publish failure never fails the write.
	Feed feed.Publisher
}

func (b Bookmark) Wire() types.Bookmark {
	return types.Bookmark{
		Id:        b.BookmarkId,
		Title:     b.Title,
		Url:       b.Url,
		CreatedAt: b.CreatedAt,
	}
}

// Create inserts one bookmark row and returns it with the server-assigned id
// and creation timestamp. An empty title is filled in from the target page.
func (m *BookmarkModel) Create(ctx context.Context, userId types.UserId, title, link string) (*Bookmark, error) {
	link = strings.TrimSpace(link)
	if !validations.IsURLValid(link) {
		return nil, errors.ErrInvalidUrl
	}

	title = validations.CleanUpText(title)
	if title == "" {
		title = fetchTitle(ctx, link)
	}

	bookmarkId := strings.ToLower(rand.Text())[:8]
	bookmark := Bookmark{
		BookmarkId: types.BookmarkId(bookmarkId),
		UserId:     userId,
		Title:      title,
		Url:        link,
	}

	row := m.Pool.QueryRow(ctx, `
		INSERT INTO bookmarks (bookmark_id, user_id, title, url)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`, bookmarkId, userId, title, link)
	if err := row.Scan(&bookmark.CreatedAt); err != nil {
		return nil, fmt.Errorf("bookmark create: %w", err)
	}

	m.publish(ctx, userId, feed.Insert(bookmark.Wire()))
	return &bookmark, nil
}

// GetByUserId returns every bookmark owned by the user, newest first. The
// full ordered list is what the polling path replaces client state with.
func (m *BookmarkModel) GetByUserId(ctx context.Context, userId types.UserId) ([]Bookmark, error) {
	rows, err := m.Pool.Query(ctx, `
		SELECT bookmark_id, user_id, title, url, created_at
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC`, userId)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks by user id: %w", err)
	}
	bookmarks, err := pgx.CollectRows(rows, pgx.RowToStructByName[Bookmark])
	if err != nil {
		return nil, fmt.Errorf("collect bookmark rows: %w", err)
	}
	return bookmarks, nil
}

func (m *BookmarkModel) GetById(ctx context.Context, userId types.UserId, id types.BookmarkId) (*Bookmark, error) {
	rows, err := m.Pool.Query(ctx, `
		SELECT bookmark_id, user_id, title, url, created_at
		FROM bookmarks
		WHERE user_id = $1 AND bookmark_id = $2`, userId, id)
	if err != nil {
		return nil, fmt.Errorf("query bookmark by id: %w", err)
	}
	bookmark, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Bookmark])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("bookmark by id: %w", err)
	}
	return &bookmark, nil
}

func (m *BookmarkModel) Update(ctx context.Context, userId types.UserId, id types.BookmarkId, title, link string) (*Bookmark, error) {
	link = strings.TrimSpace(link)
	if !validations.IsURLValid(link) {
		return nil, errors.ErrInvalidUrl
	}
	title = validations.CleanUpText(title)
	if title == "" {
		return nil, errors.New("bookmark title must not be empty")
	}

	row := m.Pool.QueryRow(ctx, `
		UPDATE bookmarks SET title = $1, url = $2
		WHERE user_id = $3 AND bookmark_id = $4
		RETURNING created_at`, title, link, userId, id)
	bookmark := Bookmark{
		BookmarkId: id,
		UserId:     userId,
		Title:      title,
		Url:        link,
	}
	if err := row.Scan(&bookmark.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("update bookmark: %w", err)
	}

	m.publish(ctx, userId, feed.Update(bookmark.Wire()))
	return &bookmark, nil
}

// Delete removes one bookmark by id. Deleting an id that does not exist (or
// belongs to someone else) is a no-op; the feed only sees committed removals.
func (m *BookmarkModel) Delete(ctx context.Context, userId types.UserId, id types.BookmarkId) error {
	tag, err := m.Pool.Exec(ctx, `
		DELETE FROM bookmarks WHERE user_id = $1 AND bookmark_id = $2;`, userId, id)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if tag.RowsAffected() > 0 {
		m.publish(ctx, userId, feed.Delete(id))
	}
	return nil
}

func (m *BookmarkModel) publish(ctx context.Context, userId types.UserId, event feed.Event) {
	if m.Feed == nil {
		return
	}
	if err := m.Feed.Publish(ctx, userId, event); err != nil {
		logging.Logger.Errorw("publish bookmark change", "error", err, "user", userId, "type", event.Type)
	}
}

// fetchTitle grabs the page title for bookmarks saved without one. Any
// failure falls back to the hostname; saving must not depend on the target
// site being reachable.
func fetchTitle(ctx context.Context, link string) string {
	fallback := validations.ExtractHostname(link)

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, link, nil)
	if err != nil {
		return fallback
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fallback
	}

	finalURL := resp.Request.URL
	article, err := readability.FromReader(io.LimitReader(resp.Body, 1<<20), finalURL)
	if err != nil {
		return fallback
	}
	title := validations.CleanUpText(article.Title)
	if title == "" {
		return fallback
	}
	return title
}
