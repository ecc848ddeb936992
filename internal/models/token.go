package models

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prasannakumar32/smart-bookmark/internal/logging"
	"github.com/prasannakumar32/smart-bookmark/internal/rand"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

const ApiTokenBytes = 32

// MaxTokens caps how many devices can stay signed in at once. The oldest
// token is evicted when the cap is hit.
const MaxTokens = 5

type ApiToken struct {
	ID          int
	UserId      types.UserId
	TokenHash   string
	TokenSource string
	CreatedAt   time.Time
	LastUsedAt  *time.Time
}

type GeneratedApiToken struct {
	ApiToken
	Token string
}

type TokenModel struct {
	Pool *pgxpool.Pool
}

func (tm *TokenModel) Create(ctx context.Context, userId types.UserId, source string) (*GeneratedApiToken, error) {
	token, err := rand.String(ApiTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("api token: %w", err)
	}

	// Check the limit on the number of tokens
	row := tm.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM api_tokens WHERE user_id = $1`, userId)
	var count int
	if err := row.Scan(&count); err != nil {
		return nil, fmt.Errorf("api token count: %w", err)
	}
	if count >= MaxTokens {
		logging.Logger.Warnw("api token limit reached. deleting old ones", "count", count, "userId", userId)
		_, err = tm.Pool.Exec(ctx, `
			DELETE FROM api_tokens
			WHERE id = (
				SELECT id FROM api_tokens
				WHERE user_id = $1
				ORDER BY created_at ASC
				LIMIT 1
			)`, userId)
		if err != nil {
			return nil, fmt.Errorf("api token delete old: %w", err)
		}
	}

	apiToken := GeneratedApiToken{
		ApiToken: ApiToken{
			UserId:      userId,
			TokenHash:   hashToken(token),
			TokenSource: source,
		},
		Token: token,
	}
	row = tm.Pool.QueryRow(ctx, `
		INSERT INTO api_tokens (user_id, token_hash, token_source)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, userId, apiToken.TokenHash, source)
	if err := row.Scan(&apiToken.ID, &apiToken.CreatedAt); err != nil {
		return nil, fmt.Errorf("api token create: %w", err)
	}
	return &apiToken, nil
}

func (tm *TokenModel) User(ctx context.Context, token string) (*User, error) {
	tokenHash := hashToken(token)
	var user User

	row := tm.Pool.QueryRow(ctx, `
		SELECT users.id, email, oauth_provider, oauth_id, oauth_email, users.created_at
		FROM users
		JOIN api_tokens ON users.id = api_tokens.user_id
		WHERE api_tokens.token_hash = $1`, tokenHash)
	err := row.Scan(&user.ID, &user.Email, &user.OAuthProvider, &user.OAuthID, &user.OAuthEmail, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("token user: %w", err)
	}

	_, err = tm.Pool.Exec(ctx, `
		UPDATE api_tokens SET last_used_at = NOW() WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("token update last_used_at: %w", err)
	}

	return &user, nil
}

// DeleteByToken revokes the token presented by the caller.
func (tm *TokenModel) DeleteByToken(ctx context.Context, token string) error {
	_, err := tm.Pool.Exec(ctx, `
		DELETE FROM api_tokens WHERE token_hash = $1`, hashToken(token))
	if err != nil {
		return fmt.Errorf("api token delete: %w", err)
	}
	return nil
}
