package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prasannakumar32/smart-bookmark/internal/errors"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

type User struct {
	ID            types.UserId
	Email         string
	OAuthProvider *string
	OAuthID       *string
	OAuthEmail    *string
	CreatedAt     time.Time
}

type UserModel struct {
	Pool *pgxpool.Pool
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (us *UserModel) GetByOAuth(ctx context.Context, provider, oauthId string) (*User, error) {
	row := us.Pool.QueryRow(ctx, `
		SELECT id, email, oauth_provider, oauth_id, oauth_email, created_at
		FROM users
		WHERE oauth_provider = $1 AND oauth_id = $2`, provider, oauthId)

	var user User
	err := row.Scan(&user.ID, &user.Email, &user.OAuthProvider, &user.OAuthID, &user.OAuthEmail, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("user by oauth: %w", err)
	}
	return &user, nil
}

func (us *UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = normalizeEmail(email)
	row := us.Pool.QueryRow(ctx, `
		SELECT id, email, oauth_provider, oauth_id, oauth_email, created_at
		FROM users
		WHERE email = $1`, email)

	var user User
	err := row.Scan(&user.ID, &user.Email, &user.OAuthProvider, &user.OAuthID, &user.OAuthEmail, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &user, nil
}

func (us *UserModel) CreateOAuthUser(ctx context.Context, provider, oauthId, email, oauthEmail string) (*User, error) {
	email = normalizeEmail(email)
	user := User{
		Email:         email,
		OAuthProvider: &provider,
		OAuthID:       &oauthId,
		OAuthEmail:    &oauthEmail,
	}
	row := us.Pool.QueryRow(ctx, `
		INSERT INTO users (email, oauth_provider, oauth_id, oauth_email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, email, provider, oauthId, oauthEmail)
	err := row.Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr interface {
			SQLState() string
		}
		if errors.As(err, &pgErr) && pgErr.SQLState() == pgerrcode.UniqueViolation {
			return nil, errors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	return &user, nil
}

func (us *UserModel) LinkOAuthToExistingUser(ctx context.Context, id types.UserId, provider, oauthId, oauthEmail string) error {
	_, err := us.Pool.Exec(ctx, `
		UPDATE users
		SET oauth_provider = $1, oauth_id = $2, oauth_email = $3
		WHERE id = $4`, provider, oauthId, oauthEmail, id)
	if err != nil {
		return fmt.Errorf("link oauth to user: %w", err)
	}
	return nil
}
