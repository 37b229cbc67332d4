package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/remi-music/studio/internal/models"
)

// GenerationRepository handles music generation records. Inserts are
// append-only; rows are never updated or deleted by this service.
type GenerationRepository struct {
	db *DB
}

// NewGenerationRepository creates a new GenerationRepository
func NewGenerationRepository(db *DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Insert stores a generation record and returns its ID.
func (r *GenerationRepository) Insert(ctx context.Context, rec *models.GenerationRecord) (uuid.UUID, error) {
	query := `
		INSERT INTO music_generations (
			id, prompt, lyrics, audio_url, audio_data, duration,
			sample_rate, bitrate, format, user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Prompt, rec.Lyrics, rec.AudioURL, rec.AudioData,
		rec.Duration, rec.SampleRate, rec.Bitrate, rec.Format,
		rec.UserID, rec.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert generation record: %w", err)
	}

	return rec.ID, nil
}

// ListRecent returns the most recent generations, newest first. Each call is
// a fresh read.
func (r *GenerationRepository) ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, prompt, lyrics, audio_url, duration, created_at, format
		FROM music_generations
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Lyrics, &e.AudioURL, &e.Duration, &e.CreatedAt, &e.Format); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
