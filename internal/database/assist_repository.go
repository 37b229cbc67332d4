package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/remi-music/studio/internal/models"
)

// AssistRepository handles usage records for the text-generation assist
// endpoints (lyrics drafts, prompt enhancements, cover-art concepts).
type AssistRepository struct {
	db *DB
}

// NewAssistRepository creates a new AssistRepository
func NewAssistRepository(db *DB) *AssistRepository {
	return &AssistRepository{db: db}
}

// Insert stores an assist usage record and returns its ID.
func (r *AssistRepository) Insert(ctx context.Context, rec *models.AssistRecord) (uuid.UUID, error) {
	var inputJSON []byte
	var err error

	if rec.Input != nil {
		inputJSON, err = json.Marshal(rec.Input)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to marshal input: %w", err)
		}
	}

	query := `
		INSERT INTO assist_generations (
			id, kind, input, output, tokens_used, estimated_cost, user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.Kind, inputJSON, rec.Output,
		rec.TokensUsed, rec.EstimatedCost, rec.UserID, rec.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert assist record: %w", err)
	}

	return rec.ID, nil
}
