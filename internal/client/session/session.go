// Package session manages the device's authenticated identity: the device
// auth flow against the server, the persisted token, and the cross-process
// auth broadcast.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/client/api"
	"github.com/prasannakumar32/smart-bookmark/internal/client/broadcast"
	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/logging"
)

const sessionFile = "session.json"

// signInTimeout bounds how long we wait for the user to finish the
// browser flow.
const signInTimeout = 5 * time.Minute

type Session struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type Manager struct {
	ServerURL string
	StateDir  string
	Bus       *broadcast.Bus

	// OpenBrowser launches the user's browser; overridable in tests.
	OpenBrowser func(url string) error
}

func NewManager(serverURL, stateDir string, bus *broadcast.Bus) *Manager {
	return &Manager{
		ServerURL:   serverURL,
		StateDir:    stateDir,
		Bus:         bus,
		OpenBrowser: openBrowser,
	}
}

// Current returns the stored session after validating its token against
// the server. A revoked or expired token clears the stored session.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	session, err := m.load()
	if err != nil {
		return nil, err
	}

	client := api.New(m.ServerURL, session.Token)
	email, err := client.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrNotAuthenticated) {
			m.clear()
			return nil, errors.ErrNotAuthenticated
		}
		return nil, err
	}
	if email != session.Email {
		session.Email = email
		m.save(session)
	}
	return session, nil
}

// SignIn runs the device auth flow: listen on an ephemeral loopback port,
// send the user's browser to the server's authorization page with that
// port, and wait for the server to redirect the browser back to us with a
// token.
func (m *Manager) SignIn(ctx context.Context) (*Session, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for auth callback: %w", err)
	}
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	tokens := make(chan string, 1)
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/callback" {
				http.NotFound(w, r)
				return
			}
			token := r.URL.Query().Get("token")
			if token == "" {
				http.Error(w, "Missing token", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><body><p>Signed in. You can close this window.</p></body></html>"))
			select {
			case tokens <- token:
			default:
			}
		}),
	}
	go server.Serve(listener)
	defer server.Close()

	authURL := fmt.Sprintf("%s/device/auth?port=%d", m.ServerURL, port)
	if err := m.OpenBrowser(authURL); err != nil {
		logging.Logger.Warnw("could not open browser", "error", err)
		fmt.Printf("Open this URL in your browser to sign in:\n\n  %s\n\n", authURL)
	}

	var token string
	select {
	case token = <-tokens:
	case <-time.After(signInTimeout):
		return nil, errors.New("timed out waiting for sign in")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	client := api.New(m.ServerURL, token)
	email, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("validate new token: %w", err)
	}

	session := &Session{Token: token, Email: email}
	if err := m.save(session); err != nil {
		return nil, err
	}
	if m.Bus != nil {
		m.Bus.PublishAuth(broadcast.AuthSignedIn)
	}
	return session, nil
}

// SignOut revokes the token server-side, clears the stored session and
// broadcasts the transition. The local session is cleared even when the
// revoke call fails; the token cap on the server eventually evicts it.
func (m *Manager) SignOut(ctx context.Context) error {
	session, err := m.load()
	if err != nil {
		if errors.Is(err, errors.ErrNotAuthenticated) {
			return nil
		}
		return err
	}

	client := api.New(m.ServerURL, session.Token)
	if err := client.RevokeToken(ctx); err != nil && !errors.Is(err, errors.ErrNotAuthenticated) {
		logging.Logger.Warnw("revoke token", "error", err)
	}

	m.clear()
	if m.Bus != nil {
		m.Bus.PublishAuth(broadcast.AuthSignedOut)
	}
	return nil
}

func (m *Manager) path() string {
	return filepath.Join(m.StateDir, sessionFile)
}

func (m *Manager) load() (*Session, error) {
	payload, err := os.ReadFile(m.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, errors.ErrNotAuthenticated
	}
	if session.Token == "" {
		return nil, errors.ErrNotAuthenticated
	}
	return &session, nil
}

func (m *Manager) save(session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(m.path(), payload, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (m *Manager) clear() {
	if err := os.Remove(m.path()); err != nil && !os.IsNotExist(err) {
		logging.Logger.Warnw("clear session", "error", err)
	}
}

func openBrowser(target string) error {
	if _, err := url.Parse(target); err != nil {
		return err
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", target).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Start()
	default:
		return exec.Command("xdg-open", target).Start()
	}
}
