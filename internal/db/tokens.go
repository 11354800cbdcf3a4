package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Token is a stored OAuth token for one Spotify application.
type Token struct {
	ClientID     string
	AccessToken  string
	TokenType    string
	RefreshToken string
	Expiry       time.Time
	UpdatedAt    time.Time
}

// TokenRepository handles token database operations.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// Get retrieves the token stored for clientID.
func (r *TokenRepository) Get(ctx context.Context, clientID string) (*Token, error) {
	query := `
		SELECT client_id, access_token, token_type, refresh_token, expiry, updated_at
		FROM oauth_tokens
		WHERE client_id = $1
	`
	var token Token
	var expiry *time.Time
	err := r.pool.QueryRow(ctx, query, clientID).Scan(
		&token.ClientID,
		&token.AccessToken,
		&token.TokenType,
		&token.RefreshToken,
		&expiry,
		&token.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying token: %w", err)
	}
	if expiry != nil {
		token.Expiry = *expiry
	}
	return &token, nil
}

// Upsert inserts or replaces the token for token.ClientID.
func (r *TokenRepository) Upsert(ctx context.Context, token *Token) error {
	query := `
		INSERT INTO oauth_tokens (client_id, access_token, token_type, refresh_token, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (client_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			token_type = EXCLUDED.token_type,
			refresh_token = EXCLUDED.refresh_token,
			expiry = EXCLUDED.expiry,
			updated_at = NOW()
	`
	var expiry *time.Time
	if !token.Expiry.IsZero() {
		expiry = &token.Expiry
	}
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	_, err := r.pool.Exec(ctx, query,
		token.ClientID,
		token.AccessToken,
		tokenType,
		token.RefreshToken,
		expiry,
	)
	if err != nil {
		return fmt.Errorf("upserting token: %w", err)
	}
	return nil
}

// Delete removes the token for clientID. Deleting a missing row is not an error.
func (r *TokenRepository) Delete(ctx context.Context, clientID string) error {
	query := `DELETE FROM oauth_tokens WHERE client_id = $1`
	if _, err := r.pool.Exec(ctx, query, clientID); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
