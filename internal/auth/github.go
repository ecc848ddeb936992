package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	authcontext "github.com/prasannakumar32/smart-bookmark/internal/auth/context"
	"github.com/prasannakumar32/smart-bookmark/internal/config"
	"github.com/prasannakumar32/smart-bookmark/internal/models"
	"github.com/prasannakumar32/smart-bookmark/internal/rand"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

type GitHub struct {
	UserService    *models.UserModel
	SessionService *models.SessionService
	Config         *oauth2.Config
	Domain         string
}

type GitHubUser struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

func NewGitHubOAuth(
	cfg config.GitHubOAuthConfig,
	domain string,
	userService *models.UserModel,
	sessionService *models.SessionService,
) *GitHub {
	redirectURL, err := url.JoinPath(domain, "/oauth/github/callback")
	if err != nil {
		redirectURL = fmt.Sprintf("%s/oauth/github/callback", domain)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}

	return &GitHub{
		Config:         oauthConfig,
		Domain:         domain,
		UserService:    userService,
		SessionService: sessionService,
	}
}

// RedirectToGitHub initiates the OAuth flow by redirecting to GitHub
func (g *GitHub) RedirectToGitHub(w http.ResponseWriter, r *http.Request) {
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

// HandleCallback processes the OAuth callback from GitHub
func (g *GitHub) HandleCallback(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Failed to authenticate with GitHub", http.StatusInternalServerError)
		return
	}

	githubUser, err := g.getGitHubUser(token.AccessToken)
	if err != nil {
		logger.Errorw("failed to get GitHub user", "error", err)
		http.Error(w, "Failed to get user information", http.StatusInternalServerError)
		return
	}

	user, err := authenticateOrCreateUser(r.Context(), g.UserService, "github", fmt.Sprintf("%d", githubUser.ID), githubUser.Email)
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
	logger.Infow("github oauth login successful", "user_id", user.ID, "github_id", githubUser.ID)

	http.Redirect(w, r, consumeNext(w, r), http.StatusFound)
}

// getGitHubUser fetches user information from GitHub API
func (g *GitHub) getGitHubUser(accessToken string) (*GitHubUser, error) {
	req, err := http.NewRequest("GET", "https://api.github.com/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status: %d", resp.StatusCode)
	}

	var user GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// If email is not public, try to get it from the emails endpoint
	if user.Email == "" {
		user.Email, err = g.getGitHubEmail(accessToken)
		if err != nil {
			return nil, fmt.Errorf("get email: %w", err)
		}
	}

	return &user, nil
}

// getGitHubEmail fetches the user's primary email from GitHub
func (g *GitHub) getGitHubEmail(accessToken string) (string, error) {
	req, err := http.NewRequest("GET", "https://api.github.com/user/emails", nil)
	if err != nil {
		return "", fmt.Errorf("create github email request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("github email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github email API returned status: %d", resp.StatusCode)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("decode github email response: %w", err)
	}

	// Prefer the primary verified email
	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}
	for _, email := range emails {
		if email.Verified {
			return email.Email, nil
		}
	}

	return "", fmt.Errorf("no verified github email found")
}
