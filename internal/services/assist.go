package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/remi-music/studio/internal/auth"
	"github.com/remi-music/studio/internal/config"
	"github.com/remi-music/studio/internal/gateway"
	"github.com/remi-music/studio/internal/models"
	"github.com/rs/zerolog/log"
)

// placeholderCoverURL stands in until an image generation backend is wired up.
const placeholderCoverURL = "https://via.placeholder.com/512x512.png?text=Album+Cover"

// coverImageCost is the approximate per-image cost added to cover-art records.
const coverImageCost = 0.002

const lyricsSystemPrompt = `You are ReMi, an expert AI lyrics assistant. Generate professional, emotionally resonant song lyrics with proper musical structure tags.

CRITICAL REQUIREMENTS:
- Use structure tags: [Intro], [Verse], [Pre-Chorus], [Chorus], [Bridge], [Outro]
- Each section should be clearly labeled
- Lyrics should flow naturally and tell a cohesive story
- Match the requested genre, mood, and theme
- Keep verses distinct but thematically connected
- Make the chorus memorable and impactful
- Include emotional depth and vivid imagery`

const promptSystemPrompt = `You are an expert music production assistant. Transform simple song ideas into detailed, technical music prompts optimized for AI music generation.

CRITICAL REQUIREMENTS:
- Extract and expand genre, style, and mood
- Specify instruments in detail (e.g., "acoustic guitar with fingerpicking", "punchy 808 bass")
- Include tempo/BPM ranges when appropriate
- Add production style (e.g., "lo-fi bedroom pop", "crisp modern production")
- Mention vocal style if relevant (e.g., "smooth R&B vocals", "energetic punk shouting")
- Reference specific artists or eras for style guidance
- Include energy level and dynamics
- Add atmosphere and sonic textures

OUTPUT FORMAT:
Return ONLY the enhanced prompt as plain text - no JSON, no explanations, no metadata. Just the detailed prompt ready to use.`

const coverArtSystemPrompt = `You are an expert album art designer. Analyze music descriptions and lyrics to create compelling visual concepts for album covers.

CRITICAL REQUIREMENTS:
- Extract mood, genre, and emotional themes
- Consider color palettes that match the music
- Think about visual metaphors and symbolism
- Keep descriptions focused on visual elements (no text or words in the image)
- Match art style to music genre (e.g., minimalist for indie, bold for rock)
- Create cohesive visual storytelling

OUTPUT FORMAT:
Return ONLY the image generation prompt as plain text - no JSON, no explanations. Just the visual description.

STYLE GUIDELINES:
- Minimalist: Clean lines, simple shapes, negative space, limited color palette
- Modern: Contemporary design, gradient backgrounds, geometric elements, vibrant colors
- Retro: Vintage aesthetics, grain texture, warm tones, nostalgic elements
- Artistic: Abstract forms, painterly effects, expressive compositions
- Photorealistic: Detailed scenes, natural lighting, cinematic composition`

// AssistService handles the text-generation assist endpoints: lyrics drafts,
// prompt enhancement and cover-art concepts. Each call is one round trip to
// the chat gateway followed by a best-effort usage record.
type AssistService struct {
	chat   chatGateway
	repo   assistRepository
	config *config.Config
}

// NewAssistService creates a new AssistService
func NewAssistService(chat chatGateway, repo assistRepository, cfg *config.Config) *AssistService {
	return &AssistService{
		chat:   chat,
		repo:   repo,
		config: cfg,
	}
}

// DraftLyrics generates structured song lyrics from a description.
func (s *AssistService) DraftLyrics(ctx context.Context, req *models.LyricsRequest) (*models.AssistResult, error) {
	if req.Description == "" {
		return nil, &models.ValidationError{Field: "description", Message: "song description is required"}
	}

	var hints strings.Builder
	if req.Genre != "" {
		fmt.Fprintf(&hints, "\nGenre: %s", req.Genre)
	}
	if req.Mood != "" {
		fmt.Fprintf(&hints, "\nMood: %s", req.Mood)
	}
	if req.Theme != "" {
		fmt.Fprintf(&hints, "\nTheme: %s", req.Theme)
	}

	userPrompt := fmt.Sprintf(`Generate structured lyrics for a song with these details:

Description: %s%s

Create compelling, professional lyrics with proper structure tags that would work perfectly for AI music generation.`, req.Description, hints.String())

	lyrics, tokens, err := s.chat.Complete(ctx, lyricsSystemPrompt, userPrompt, 0.8, 1500)
	if err != nil {
		return nil, err
	}

	result := &models.AssistResult{
		Output:        lyrics,
		TokensUsed:    tokens,
		EstimatedCost: gateway.EstimateCost(tokens),
	}
	result.SavedRecord = s.persist(ctx, "lyrics", map[string]interface{}{
		"description": req.Description,
		"genre":       req.Genre,
		"mood":        req.Mood,
		"theme":       req.Theme,
	}, result)

	return result, nil
}

// EnhancePrompt expands a simple song idea into a detailed generation prompt.
func (s *AssistService) EnhancePrompt(ctx context.Context, req *models.PromptRequest) (*models.AssistResult, error) {
	if req.SimplePrompt == "" {
		return nil, &models.ValidationError{Field: "simplePrompt", Message: "simple prompt is required"}
	}

	lyricsContext := ""
	if req.Lyrics != "" {
		lyricsContext = fmt.Sprintf("\n\nLYRICS CONTEXT (use to inform mood and style):\n%s", clip(req.Lyrics, 500))
	}

	userPrompt := fmt.Sprintf(`Transform this simple prompt into a detailed music generation prompt:

%q%s

Generate a detailed, technical prompt that will produce the best possible music from an AI music generator.`, req.SimplePrompt, lyricsContext)

	enhanced, tokens, err := s.chat.Complete(ctx, promptSystemPrompt, userPrompt, 0.7, 500)
	if err != nil {
		return nil, err
	}

	result := &models.AssistResult{
		Output:        strings.TrimSpace(enhanced),
		TokensUsed:    tokens,
		EstimatedCost: gateway.EstimateCost(tokens),
	}
	result.SavedRecord = s.persist(ctx, "prompt", map[string]interface{}{
		"simplePrompt": req.SimplePrompt,
	}, result)

	return result, nil
}

// CoverArtConcept produces an album-cover visual concept for the given music.
// Image rendering itself is stubbed; the result carries a placeholder URL.
func (s *AssistService) CoverArtConcept(ctx context.Context, req *models.CoverArtRequest) (*models.AssistResult, error) {
	if req.MusicPrompt == "" {
		return nil, &models.ValidationError{Field: "musicPrompt", Message: "music prompt is required"}
	}

	style := req.Style
	if style == "" {
		style = "modern"
	}

	lyricsContext := ""
	if req.Lyrics != "" {
		lyricsContext = fmt.Sprintf("\nLyrics themes: %s", clip(req.Lyrics, 400))
	}

	userPrompt := fmt.Sprintf(`Create an album cover concept for this music:

Music style: %s%s

Art style preference: %s

Generate a detailed visual description for album artwork.`, req.MusicPrompt, lyricsContext, style)

	concept, tokens, err := s.chat.Complete(ctx, coverArtSystemPrompt, userPrompt, 0.8, 300)
	if err != nil {
		return nil, err
	}

	result := &models.AssistResult{
		Output:        strings.TrimSpace(concept),
		ImageURL:      placeholderCoverURL,
		TokensUsed:    tokens,
		EstimatedCost: gateway.EstimateCost(tokens) + coverImageCost,
	}
	result.SavedRecord = s.persist(ctx, "cover_art", map[string]interface{}{
		"musicPrompt": req.MusicPrompt,
		"style":       style,
	}, result)

	return result, nil
}

// persist writes a best-effort usage record; failure returns nil and never
// fails the call.
func (s *AssistService) persist(ctx context.Context, kind string, input map[string]interface{}, result *models.AssistResult) *uuid.UUID {
	if s.repo == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.SideStepTimeout)
	defer cancel()

	record := &models.AssistRecord{
		ID:            uuid.New(),
		Kind:          kind,
		Input:         input,
		Output:        result.Output,
		TokensUsed:    result.TokensUsed,
		EstimatedCost: result.EstimatedCost,
		UserID:        auth.UserID(ctx),
		CreatedAt:     time.Now().UTC(),
	}

	id, err := s.repo.Insert(ctx, record)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("Failed to persist assist record, continuing")
		return nil
	}

	return &id
}

// clip returns at most n characters of s, never splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
