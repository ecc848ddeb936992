package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	cookieOAuthState = "oauth_state"
	cookieOAuthNext  = "oauth_next"
)

func setStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieOAuthState,
		Value:    state,
		Path:     "/",
		MaxAge:   300, // 5 minutes
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func verifyState(w http.ResponseWriter, r *http.Request) error {
	stateCookie, err := r.Cookie(cookieOAuthState)
	if err != nil {
		return fmt.Errorf("missing oauth state cookie: %w", err)
	}

	// Clear the state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     cookieOAuthState,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	state := r.URL.Query().Get("state")
	if state == "" || state != stateCookie.Value {
		return fmt.Errorf("oauth state mismatch")
	}
	return nil
}

// rememberNext stashes a local post-auth destination (e.g. the device auth
// handoff) across the provider round trip. Only same-site paths are kept.
func rememberNext(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieOAuthNext,
		Value:    url.QueryEscape(next),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func consumeNext(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(cookieOAuthNext)
	if err != nil {
		return "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieOAuthNext,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	next, err := url.QueryUnescape(cookie.Value)
	if err != nil || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
