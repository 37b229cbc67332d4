// Package relay re-hosts generated audio artifacts in durable object storage.
// Re-hosting is best-effort: every failure inside this package is absorbed and
// logged, degrading the audio reference instead of failing the generation.
package relay

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// objectStore is the subset of storage operations the relay needs.
type objectStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string, contentLength int64) error
	ObjectURL(ctx context.Context, key string) (string, error)
}

// Result is the best available audio reference after re-hosting.
// AudioURL is a dereferenceable URL (storage or original upstream). AudioHex
// preserves the inline payload when it could not be re-hosted, so clients can
// still decode and play it locally. Both nil means no playable artifact.
type Result struct {
	AudioURL *string
	AudioHex *string
}

// Relay re-hosts audio from a gateway response into object storage.
type Relay struct {
	store      objectStore
	httpClient *http.Client
	timeout    time.Duration
	now        func() time.Time
}

// New creates a Relay. timeout bounds each network step (fetch, upload)
// independently so a slow relay cannot stall the overall request.
func New(store objectStore, timeout time.Duration) *Relay {
	return &Relay{
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		now:        time.Now,
	}
}

// Rehost obtains raw audio bytes from the gateway response (remote URL or
// inline hex payload; URL wins when both are present) and uploads them to
// storage under a time-based key. It never returns an error: failures degrade
// the result per the policy documented on Result.
func (r *Relay) Rehost(ctx context.Context, audioURL, audioHex, format string) Result {
	switch {
	case audioURL != "":
		return r.rehostURL(ctx, audioURL, format)
	case audioHex != "":
		return r.rehostHex(ctx, audioHex, format)
	default:
		return Result{}
	}
}

// rehostURL fetches the upstream URL and re-uploads the bytes. On any failure
// the original upstream URL is returned unchanged — it may still be viewable
// by the client even if not durably re-hosted.
func (r *Relay) rehostURL(ctx context.Context, audioURL, format string) Result {
	data, err := r.fetch(ctx, audioURL)
	if err != nil {
		log.Error().Err(err).Str("audio_url", audioURL).Msg("Audio fetch failed, keeping upstream URL")
		return Result{AudioURL: &audioURL}
	}

	storedURL, err := r.upload(ctx, data, format)
	if err != nil {
		log.Error().Err(err).Msg("Audio upload failed, keeping upstream URL")
		return Result{AudioURL: &audioURL}
	}

	return Result{AudioURL: &storedURL}
}

// rehostHex decodes the inline hex payload and uploads the raw bytes. On any
// failure the hex payload is preserved in the result and the URL stays nil.
func (r *Relay) rehostHex(ctx context.Context, audioHex, format string) Result {
	data, err := hex.DecodeString(audioHex)
	if err != nil {
		log.Error().Err(err).Int("hex_len", len(audioHex)).Msg("Inline audio is not valid hex")
		return Result{AudioHex: &audioHex}
	}

	storedURL, err := r.upload(ctx, data, format)
	if err != nil {
		log.Error().Err(err).Msg("Inline audio upload failed, keeping hex payload")
		return Result{AudioHex: &audioHex}
	}

	return Result{AudioURL: &storedURL, AudioHex: &audioHex}
}

func (r *Relay) fetch(ctx context.Context, audioURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("audio fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio body: %w", err)
	}

	return data, nil
}

func (r *Relay) upload(ctx context.Context, data []byte, format string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	key := fmt.Sprintf("generated/music_%d.%s", r.now().UnixMilli(), format)
	contentType := "audio/" + format

	if err := r.store.Upload(ctx, key, bytes.NewReader(data), contentType, int64(len(data))); err != nil {
		return "", err
	}

	storedURL, err := r.store.ObjectURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("uploaded but failed to resolve object URL: %w", err)
	}

	log.Info().Str("key", key).Str("url", storedURL).Msg("Audio re-hosted in storage")
	return storedURL, nil
}
