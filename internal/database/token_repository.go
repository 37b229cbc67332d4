package database

import (
	"context"

	"github.com/remi-music/studio/internal/models"
)

// TokenRepository handles access token lookups for the identity resolver.
type TokenRepository struct {
	db *DB
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// GetByTokenID looks up an access token by its public ID part.
func (r *TokenRepository) GetByTokenID(ctx context.Context, tokenID string) (*models.AccessToken, error) {
	query := `
		SELECT id, user_id, token_hash, status, created_at
		FROM access_tokens
		WHERE id = $1
	`

	var token models.AccessToken
	err := r.db.QueryRowContext(ctx, query, tokenID).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.Status, &token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &token, nil
}
