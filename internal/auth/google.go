package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	authcontext "github.com/prasannakumar32/smart-bookmark/internal/auth/context"
	"github.com/prasannakumar32/smart-bookmark/internal/config"
	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/models"
	"github.com/prasannakumar32/smart-bookmark/internal/rand"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type Google struct {
	UserService    *models.UserModel
	SessionService *models.SessionService
	Config         *oauth2.Config
	Domain         string
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewGoogleOAuth(
	cfg config.GoogleOAuthConfig,
	domain string,
	userService *models.UserModel,
	sessionService *models.SessionService,
) *Google {
	redirectURL, err := url.JoinPath(domain, "/oauth/google/callback")
	if err != nil {
		redirectURL = fmt.Sprintf("%s/oauth/google/callback", domain)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &Google{
		Config:         oauthConfig,
		Domain:         domain,
		UserService:    userService,
		SessionService: sessionService,
	}
}

// RedirectToGoogle initiates the OAuth flow by redirecting to Google
func (g *Google) RedirectToGoogle(w http.ResponseWriter, r *http.Request) {
	logger := authcontext.Logger(r.Context())
	state, err := rand.String(32)
	if err != nil {
		logger.Errorw("failed to generate state parameter", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setStateCookie(w, state)
	rememberNext(w, r)

	authURL := g.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// HandleCallback processes the OAuth callback from Google
func (g *Google) HandleCallback(w http.ResponseWriter, r *http.Request) {
	logger := authcontext.Logger(r.Context())

	if err := verifyState(w, r); err != nil {
		logger.Errorw("oauth state verification failed", "error", err)
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		logger.Errorw("missing authorization code", "oauth_error", r.URL.Query().Get("error"))
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := g.Config.Exchange(context.Background(), code)
	if err != nil {
		logger.Errorw("failed to exchange code for token", "error", err)
		http.Error(w, "Failed to authenticate with Google", http.StatusInternalServerError)
		return
	}

	googleUser, err := g.getGoogleUser(token.AccessToken)
	if err != nil {
		logger.Errorw("failed to get Google user", "error", err)
		http.Error(w, "Failed to get user information", http.StatusInternalServerError)
		return
	}

	user, err := authenticateOrCreateUser(r.Context(), g.UserService, "google", googleUser.ID, googleUser.Email)
	if err != nil {
		logger.Errorw("failed to authenticate or create user", "error", err)
		http.Error(w, "Failed to authenticate user", http.StatusInternalServerError)
		return
	}

	session, err := g.SessionService.Create(r.Context(), user.ID, r.RemoteAddr)
	if err != nil {
		logger.Errorw("failed to create session", "error", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	setCookie(w, CookieSession, session.Token)
	logger.Infow("google oauth login successful", "user_id", user.ID)

	http.Redirect(w, r, consumeNext(w, r), http.StatusFound)
}

func (g *Google) getGoogleUser(accessToken string) (*GoogleUser, error) {
	req, err := http.NewRequest("GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status: %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if user.Email == "" {
		return nil, fmt.Errorf("google account has no email")
	}
	return &user, nil
}

// authenticateOrCreateUser resolves an OAuth identity to a local user: an
// existing OAuth link wins, then an existing account with the same email is
// linked, otherwise a new user is created.
func authenticateOrCreateUser(ctx context.Context, users *models.UserModel, provider, oauthId, email string) (*models.User, error) {
	user, err := users.GetByOAuth(ctx, provider, oauthId)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	existingUser, err := users.GetByEmail(ctx, email)
	if err == nil {
		err = users.LinkOAuthToExistingUser(ctx, existingUser.ID, provider, oauthId, email)
		if err != nil {
			return nil, fmt.Errorf("link %s oauth to existing user: %w", provider, err)
		}
		return existingUser, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	user, err = users.CreateOAuthUser(ctx, provider, oauthId, email, email)
	if err != nil {
		return nil, fmt.Errorf("create user with %s oauth: %w", provider, err)
	}
	return user, nil
}
