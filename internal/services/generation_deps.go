package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/remi-music/studio/internal/events"
	"github.com/remi-music/studio/internal/gateway"
	"github.com/remi-music/studio/internal/models"
	"github.com/remi-music/studio/internal/relay"
)

// musicGateway is the music generation API surface used by GenerationService.
type musicGateway interface {
	Generate(ctx context.Context, prompt, lyrics string, settings models.AudioSettings) (*gateway.MusicResponse, error)
}

// audioRelay re-hosts gateway audio into durable storage.
type audioRelay interface {
	Rehost(ctx context.Context, audioURL, audioHex, format string) relay.Result
}

// generationRepository is the subset of generation DB operations used by GenerationService.
type generationRepository interface {
	Insert(ctx context.Context, rec *models.GenerationRecord) (uuid.UUID, error)
	ListRecent(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
}

// eventPublisher publishes generation lifecycle events. May be nil to skip publishing.
type eventPublisher interface {
	PublishGenerationFinished(ctx context.Context, event events.GenerationFinished) error
}

// chatGateway is the text-generation API surface used by AssistService.
type chatGateway interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, int, error)
}

// assistRepository is the subset of assist DB operations used by AssistService.
type assistRepository interface {
	Insert(ctx context.Context, rec *models.AssistRecord) (uuid.UUID, error)
}
