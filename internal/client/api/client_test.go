package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBookmarksSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/bookmarks/", r.URL.Path)
		json.NewEncoder(w).Encode(map[string][]types.Bookmark{
			"bookmarks": {{Id: "a1", Title: "One", Url: "https://one.example", CreatedAt: time.Now().UTC()}},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "secret")
	list, err := client.ListBookmarks(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, types.BookmarkId("a1"), list[0].Id)
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(srv.URL, "expired")
	_, err := client.CurrentUser(context.Background())

	assert.True(t, errors.Is(err, errors.ErrNotAuthenticated))
}

func TestTooManyRequestsMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret")
	_, err := client.CreateBookmark(context.Background(), types.CreateBookmarkRequest{Url: "https://example.com"})

	assert.True(t, errors.Is(err, errors.ErrTooManyRequests))
}

func TestServerErrorBodyIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"errorCode":    "INVALID_URL",
			"errorMessage": "Invalid URL: not-a-url",
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "secret")
	_, err := client.CreateBookmark(context.Background(), types.CreateBookmarkRequest{Url: "not-a-url"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_URL")
	assert.Contains(t, err.Error(), "Invalid URL")
}

func TestDeleteBookmarkAcceptsNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/bookmarks/a1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret")
	assert.NoError(t, client.DeleteBookmark(context.Background(), "a1"))
}

func TestFeedURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:3000", "ws://localhost:3000/api/v1/bookmarks/feed"},
		{"https://bookmarks.example.com", "wss://bookmarks.example.com/api/v1/bookmarks/feed"},
	}
	for _, tc := range cases {
		got, err := New(tc.base, "t").FeedURL()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := New("ftp://example.com", "t").FeedURL()
	assert.Error(t, err)
}
