package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Prompt and lyrics bounds, enforced before any network call is made.
const (
	MinPromptLen = 10
	MaxPromptLen = 2000
	MinLyricsLen = 10
	MaxLyricsLen = 3000
)

// AudioSettings describes the requested audio output. Bitrate is only
// meaningful for compressed formats (mp3).
type AudioSettings struct {
	SampleRate int    `json:"sample_rate"` // 44100 or 48000
	Bitrate    int    `json:"bitrate"`     // 128000, 192000, 256000 or 320000
	Format     string `json:"format"`      // mp3 or wav
}

// GenerationRequest is the body of POST /v1/music/generations.
// AudioSetting is optional; server-side defaults apply when nil.
type GenerationRequest struct {
	Prompt       string         `json:"prompt"`
	Lyrics       string         `json:"lyrics"`
	AudioSetting *AudioSettings `json:"audio_setting,omitempty"`
}

// ValidationError reports a request field outside its declared bounds.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Validate checks prompt and lyrics length bounds. Bounds are in characters,
// not bytes, so multibyte text is measured the way users count it.
func (r *GenerationRequest) Validate() error {
	if n := utf8.RuneCountInString(r.Prompt); n < MinPromptLen || n > MaxPromptLen {
		return &ValidationError{
			Field:   "prompt",
			Message: fmt.Sprintf("music style prompt must be between %d-%d characters", MinPromptLen, MaxPromptLen),
		}
	}
	if n := utf8.RuneCountInString(r.Lyrics); n < MinLyricsLen || n > MaxLyricsLen {
		return &ValidationError{
			Field:   "lyrics",
			Message: fmt.Sprintf("lyrics must be between %d-%d characters", MinLyricsLen, MaxLyricsLen),
		}
	}
	return nil
}

// GenerationResult is the normalized outcome of one generation.
// ID is nil when record persistence failed; AudioURL and AudioData are both nil
// when no playable artifact could be obtained (degraded success, not failure).
type GenerationResult struct {
	ID            *uuid.UUID             `json:"id"`
	AudioURL      *string                `json:"audioUrl"`
	AudioData     *string                `json:"audioData"` // inline hex payload, client-side fallback
	Duration      *float64               `json:"duration"`
	Prompt        string                 `json:"prompt"`
	Lyrics        string                 `json:"lyrics"`
	AudioSettings AudioSettings          `json:"audioSettings"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// GenerationRecord is the persisted row for a generation. AudioData keeps at
// most the first 1000 hex characters as a forensic fallback, never for playback.
// Rows are created once and never updated.
type GenerationRecord struct {
	ID         uuid.UUID  `json:"id"`
	Prompt     string     `json:"prompt"`
	Lyrics     string     `json:"lyrics"`
	AudioURL   *string    `json:"audio_url"`
	AudioData  *string    `json:"audio_data"`
	Duration   *float64   `json:"duration"`
	SampleRate int        `json:"sample_rate"`
	Bitrate    int        `json:"bitrate"`
	Format     string     `json:"format"`
	UserID     *uuid.UUID `json:"user_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// HistoryEntry is the read projection of GenerationRecord used by the
// most-recent-N listing.
type HistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	Prompt    string    `json:"prompt"`
	Lyrics    string    `json:"lyrics"`
	AudioURL  *string   `json:"audio_url"`
	Duration  *float64  `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
	Format    string    `json:"format"`
}

// LyricsRequest is the body of POST /v1/assist/lyrics.
type LyricsRequest struct {
	Description string `json:"description"`
	Genre       string `json:"genre,omitempty"`
	Mood        string `json:"mood,omitempty"`
	Theme       string `json:"theme,omitempty"`
}

// PromptRequest is the body of POST /v1/assist/prompt.
type PromptRequest struct {
	SimplePrompt string `json:"simplePrompt"`
	Lyrics       string `json:"lyrics,omitempty"`
}

// CoverArtRequest is the body of POST /v1/assist/cover-art.
type CoverArtRequest struct {
	MusicPrompt string `json:"musicPrompt"`
	Lyrics      string `json:"lyrics,omitempty"`
	Style       string `json:"style,omitempty"` // minimalist, modern, retro, artistic, photorealistic
}

// AssistResult is the outcome of one text-generation assist call.
// SavedRecord is nil when usage-record persistence failed or was skipped.
// ImageURL is only set for cover-art concepts.
type AssistResult struct {
	Output        string
	ImageURL      string
	TokensUsed    int
	EstimatedCost float64
	SavedRecord   *uuid.UUID
}

// AssistRecord is the persisted usage/audit row for an assist call.
type AssistRecord struct {
	ID            uuid.UUID              `json:"id"`
	Kind          string                 `json:"kind"` // lyrics, prompt, cover_art
	Input         map[string]interface{} `json:"input"`
	Output        string                 `json:"output"`
	TokensUsed    int                    `json:"tokens_used"`
	EstimatedCost float64                `json:"estimated_cost"`
	UserID        *uuid.UUID             `json:"user_id"`
	CreatedAt     time.Time              `json:"created_at"`
}

// User represents a user in the system
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AccessToken is a bearer credential for optional authentication.
type AccessToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	Status    string    `json:"status"` // active, disabled
	CreatedAt time.Time `json:"created_at"`
}
