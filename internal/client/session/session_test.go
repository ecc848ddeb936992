package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer emulates the server's user endpoint and token revocation.
func fakeServer(t *testing.T, validToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/user":
			json.NewEncoder(w).Encode(map[string]string{"email": "user@example.com"})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/tokens/current":
			w.Write([]byte("Token deleted"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCurrentWithoutSession(t *testing.T) {
	manager := NewManager("http://localhost:0", t.TempDir(), nil)
	_, err := manager.Current(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNotAuthenticated))
}

func TestCurrentValidatesStoredToken(t *testing.T) {
	srv := fakeServer(t, "good-token")
	dir := t.TempDir()
	manager := NewManager(srv.URL, dir, nil)
	require.NoError(t, manager.save(&Session{Token: "good-token"}))

	current, err := manager.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", current.Email)
}

func TestCurrentClearsRevokedToken(t *testing.T) {
	srv := fakeServer(t, "good-token")
	dir := t.TempDir()
	manager := NewManager(srv.URL, dir, nil)
	require.NoError(t, manager.save(&Session{Token: "revoked", Email: "user@example.com"}))

	_, err := manager.Current(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNotAuthenticated))

	_, statErr := os.Stat(filepath.Join(dir, sessionFile))
	assert.True(t, os.IsNotExist(statErr), "stale session file must be removed")
}

func TestSignInViaDeviceFlow(t *testing.T) {
	srv := fakeServer(t, "minted-token")
	dir := t.TempDir()
	manager := NewManager(srv.URL, dir, nil)

	// Play the browser: follow the auth URL's port straight to the local
	// callback with a fresh token, like the server's redirect would.
	manager.OpenBrowser = func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		go http.Get(fmt.Sprintf("http://%s/callback?token=minted-token", "127.0.0.1:"+u.Query().Get("port")))
		return nil
	}

	current, err := manager.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minted-token", current.Token)
	assert.Equal(t, "user@example.com", current.Email)

	stored, err := manager.load()
	require.NoError(t, err)
	assert.Equal(t, "minted-token", stored.Token)
}

func TestSignOutClearsSession(t *testing.T) {
	srv := fakeServer(t, "good-token")
	dir := t.TempDir()
	manager := NewManager(srv.URL, dir, nil)
	require.NoError(t, manager.save(&Session{Token: "good-token", Email: "user@example.com"}))

	require.NoError(t, manager.SignOut(context.Background()))

	_, err := manager.load()
	assert.True(t, errors.Is(err, errors.ErrNotAuthenticated))
}

func TestSignOutWithoutSessionIsNoOp(t *testing.T) {
	manager := NewManager("http://localhost:0", t.TempDir(), nil)
	assert.NoError(t, manager.SignOut(context.Background()))
}
