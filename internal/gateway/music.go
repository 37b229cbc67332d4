package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/remi-music/studio/internal/models"
	"github.com/rs/zerolog/log"
)

// musicGenerationPath is the MiniMax music generation endpoint path.
const musicGenerationPath = "/v1/music_generation"

// MusicResponse is the upstream music API response. Audio arrives either as a
// remote URL or as an inline hex-encoded payload; Metadata passes through
// verbatim to callers.
type MusicResponse struct {
	AudioURL string                 `json:"audio_url"`
	Audio    string                 `json:"audio"` // hex-encoded bytes
	Metadata map[string]interface{} `json:"metadata"`
}

// Duration returns metadata.duration if present.
func (r *MusicResponse) Duration() *float64 {
	if r.Metadata == nil {
		return nil
	}
	if d, ok := r.Metadata["duration"].(float64); ok {
		return &d
	}
	return nil
}

// MusicClient calls the MiniMax music generation API. It is stateless and
// safe to share across concurrent requests.
type MusicClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewMusicClient creates a music gateway client. timeout bounds the whole
// call; music generation is the long-pole operation of a request.
func NewMusicClient(baseURL, apiKey, model string, timeout time.Duration) *MusicClient {
	return &MusicClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Generate submits one music generation request. A non-2xx response is
// returned as *Error; no retry is performed at this layer.
func (c *MusicClient) Generate(ctx context.Context, prompt, lyrics string, settings models.AudioSettings) (*MusicResponse, error) {
	payload := map[string]interface{}{
		"model":         c.model,
		"prompt":        prompt,
		"lyrics":        lyrics,
		"audio_setting": settings,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal music request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+musicGenerationPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build music request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	log.Info().
		Str("model", c.model).
		Int("prompt_len", len(prompt)).
		Int("lyrics_len", len(lyrics)).
		Str("format", settings.Format).
		Msg("Calling music generation API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("music generation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read music response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := newError(resp.StatusCode, respBody)
		log.Error().
			Int("status", gwErr.StatusCode).
			Str("message", gwErr.Message).
			Msg("Music generation API returned error")
		return nil, gwErr
	}

	var music MusicResponse
	if err := json.Unmarshal(respBody, &music); err != nil {
		return nil, fmt.Errorf("failed to parse music response: %w", err)
	}

	log.Info().
		Bool("has_audio_url", music.AudioURL != "").
		Bool("has_inline_audio", music.Audio != "").
		Msg("Music generation successful")

	return &music, nil
}
