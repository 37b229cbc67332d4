package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/remi-music/studio/internal/auth"
	"github.com/remi-music/studio/internal/config"
	"github.com/remi-music/studio/internal/events"
	"github.com/remi-music/studio/internal/models"
	"github.com/rs/zerolog/log"
)

// maxStoredHexChars is how much of an inline hex payload is kept in the
// generation record. Forensic fallback only, never used for playback.
const maxStoredHexChars = 1000

// GenerationService orchestrates one music generation: validate, call the
// gateway, re-host the artifact, persist a record, assemble the result.
// Only validation and the gateway call are fatal; identity resolution, the
// artifact relay and record persistence degrade the result instead of
// aborting.
type GenerationService struct {
	gateway musicGateway
	relay   audioRelay
	repo    generationRepository
	events  eventPublisher
	config  *config.Config
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(gw musicGateway, rl audioRelay, repo generationRepository, ev eventPublisher, cfg *config.Config) *GenerationService {
	return &GenerationService{
		gateway: gw,
		relay:   rl,
		repo:    repo,
		events:  ev,
		config:  cfg,
	}
}

// Generate runs the full generation pipeline. The caller identity, if any,
// comes from the request context (set by the auth middleware).
func (s *GenerationService) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error) {
	// Bounds are checked before any network call is made
	if err := req.Validate(); err != nil {
		return nil, err
	}

	settings := s.resolveSettings(req.AudioSetting)
	userID := auth.UserID(ctx)

	// Gateway failure is the only fatal step after validation
	music, err := s.gateway.Generate(ctx, req.Prompt, req.Lyrics, settings)
	if err != nil {
		return nil, err
	}

	relayed := s.relay.Rehost(ctx, music.AudioURL, music.Audio, settings.Format)
	duration := music.Duration()

	metadata := music.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	recordID := s.persist(ctx, req, settings, relayed.AudioURL, relayed.AudioHex, duration, userID)

	result := &models.GenerationResult{
		ID:            recordID,
		AudioURL:      relayed.AudioURL,
		AudioData:     relayed.AudioHex,
		Duration:      duration,
		Prompt:        req.Prompt,
		Lyrics:        req.Lyrics,
		AudioSettings: settings,
		Metadata:      metadata,
	}

	s.publishFinished(ctx, result, userID)

	log.Info().
		Bool("has_audio_url", result.AudioURL != nil).
		Bool("has_audio_data", result.AudioData != nil).
		Bool("persisted", result.ID != nil).
		Msg("Generation completed")

	return result, nil
}

// History returns the most recent generations, newest first.
func (s *GenerationService) History(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	return s.repo.ListRecent(ctx, limit)
}

// resolveSettings applies the canonical server-side defaults when the request
// omits audio settings.
func (s *GenerationService) resolveSettings(requested *models.AudioSettings) models.AudioSettings {
	if requested != nil {
		return *requested
	}
	return models.AudioSettings{
		SampleRate: s.config.DefaultSampleRate,
		Bitrate:    s.config.DefaultBitrate,
		Format:     s.config.DefaultFormat,
	}
}

// persist writes the generation record. Failure degrades the result's ID to
// nil and never aborts the request.
func (s *GenerationService) persist(
	ctx context.Context,
	req *models.GenerationRequest,
	settings models.AudioSettings,
	audioURL, audioHex *string,
	duration *float64,
	userID *uuid.UUID,
) *uuid.UUID {
	ctx, cancel := context.WithTimeout(ctx, s.config.SideStepTimeout)
	defer cancel()

	record := &models.GenerationRecord{
		ID:         uuid.New(),
		Prompt:     req.Prompt,
		Lyrics:     req.Lyrics,
		AudioURL:   audioURL,
		AudioData:  truncateHex(audioHex),
		Duration:   duration,
		SampleRate: settings.SampleRate,
		Bitrate:    settings.Bitrate,
		Format:     settings.Format,
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
	}

	id, err := s.repo.Insert(ctx, record)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist generation record, continuing without id")
		return nil
	}

	return &id
}

func (s *GenerationService) publishFinished(ctx context.Context, result *models.GenerationResult, userID *uuid.UUID) {
	if s.events == nil {
		return
	}

	event := events.GenerationFinished{
		RecordID:   result.ID,
		UserID:     userID,
		Format:     result.AudioSettings.Format,
		HasAudio:   result.AudioURL != nil || result.AudioData != nil,
		Duration:   result.Duration,
		FinishedAt: time.Now().UTC(),
	}

	if err := s.events.PublishGenerationFinished(ctx, event); err != nil {
		log.Error().Err(err).Msg("Failed to publish generation event")
	}
}

// truncateHex keeps at most maxStoredHexChars of an inline payload.
func truncateHex(audioHex *string) *string {
	if audioHex == nil {
		return nil
	}
	if len(*audioHex) <= maxStoredHexChars {
		return audioHex
	}
	truncated := (*audioHex)[:maxStoredHexChars]
	return &truncated
}
