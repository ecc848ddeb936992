package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

// Client talks to the bookmark server's REST API with a bearer token.
type Client struct {
	BaseURL string
	Token   string

	HTTP *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiError struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CurrentUser validates the token and returns the account email.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	var data struct {
		Email string `json:"email"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/user", nil, &data); err != nil {
		return "", err
	}
	return data.Email, nil
}

// ListBookmarks fetches the full bookmark list, newest first.
func (c *Client) ListBookmarks(ctx context.Context) ([]types.Bookmark, error) {
	var data struct {
		Bookmarks []types.Bookmark `json:"bookmarks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/bookmarks/", nil, &data); err != nil {
		return nil, err
	}
	return data.Bookmarks, nil
}

func (c *Client) CreateBookmark(ctx context.Context, req types.CreateBookmarkRequest) (*types.Bookmark, error) {
	var bookmark types.Bookmark
	if err := c.do(ctx, http.MethodPost, "/api/v1/bookmarks/", req, &bookmark); err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (c *Client) UpdateBookmark(ctx context.Context, id types.BookmarkId, req types.UpdateBookmarkRequest) (*types.Bookmark, error) {
	var bookmark types.Bookmark
	if err := c.do(ctx, http.MethodPut, "/api/v1/bookmarks/"+url.PathEscape(string(id)), req, &bookmark); err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (c *Client) DeleteBookmark(ctx context.Context, id types.BookmarkId) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/bookmarks/"+url.PathEscape(string(id)), nil, nil)
}

// RevokeToken invalidates the token this client authenticates with.
func (c *Client) RevokeToken(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tokens/current", nil, nil)
}

// FeedURL returns the WebSocket endpoint for the change feed, derived from
// the base URL's scheme.
func (c *Client) FeedURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/api/v1/bookmarks/feed"
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return errors.ErrNotAuthenticated
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.ErrTooManyRequests
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp apiError
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&errResp); err == nil && errResp.Code != "" {
			return &errResp
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
