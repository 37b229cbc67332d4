// Package songclient is a typed client for the ReMi Studio API. It is the
// programmatic counterpart of the web UI: it submits generation requests,
// unwraps the response envelope and exposes typed results and errors. It
// never retries on its own; retry is the caller's decision.
package songclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AudioSettings describes the requested audio output.
type AudioSettings struct {
	SampleRate int    `json:"sample_rate"`
	Bitrate    int    `json:"bitrate"`
	Format     string `json:"format"`
}

// GenerationRequest is a music generation submission. AudioSetting is
// optional; the server applies its canonical defaults when absent.
type GenerationRequest struct {
	Prompt       string         `json:"prompt"`
	Lyrics       string         `json:"lyrics"`
	AudioSetting *AudioSettings `json:"audio_setting,omitempty"`
}

// GenerationResult is the normalized generation outcome. A nil ID means the
// server could not persist the record; nil AudioURL and AudioData together
// mean no playable artifact is available (degraded success).
type GenerationResult struct {
	ID            *string                `json:"id"`
	AudioURL      *string                `json:"audioUrl"`
	AudioData     *string                `json:"audioData"`
	Duration      *float64               `json:"duration"`
	Prompt        string                 `json:"prompt"`
	Lyrics        string                 `json:"lyrics"`
	AudioSettings AudioSettings          `json:"audioSettings"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// HistoryEntry is one row of the most-recent-N generation listing.
type HistoryEntry struct {
	ID        string   `json:"id"`
	Prompt    string   `json:"prompt"`
	Lyrics    string   `json:"lyrics"`
	AudioURL  *string  `json:"audio_url"`
	Duration  *float64 `json:"duration"`
	CreatedAt string   `json:"created_at"`
	Format    string   `json:"format"`
}

// APIError is an error envelope returned by the API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client calls the ReMi Studio API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer credential. Omitting it is valid: generations
// are then recorded anonymously.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the given API base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		// Music generation is slow; leave headroom over the server's own ceiling.
		httpClient: &http.Client{Timeout: 150 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends one generation request and returns the normalized result.
func (c *Client) Submit(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	payload, err := c.post(ctx, "/v1/music/generations", req)
	if err != nil {
		return nil, err
	}

	var result GenerationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to parse generation result: %w", err)
	}
	if result.Prompt == "" && result.Metadata == nil && result.AudioURL == nil && result.AudioData == nil {
		return nil, fmt.Errorf("no data returned from music generation")
	}

	return &result, nil
}

// History returns the most recent generations, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	payload, err := c.get(ctx, fmt.Sprintf("/v1/music/generations?limit=%d", limit))
	if err != nil {
		return nil, err
	}

	var listing struct {
		Generations []HistoryEntry `json:"generations"`
	}
	if err := json.Unmarshal(payload, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	return listing.Generations, nil
}

// envelope is the transport envelope. Data may hold the payload directly or
// the whole body may be a flat payload; unwrap accepts both.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

// unwrap extracts the payload from a response body. An error envelope wins;
// a populated data field is the payload; otherwise the body itself is treated
// as a flat payload.
func unwrap(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %w", err)
	}

	if env.Error != nil {
		return nil, env.Error
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data, nil
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	payload, unwrapErr := unwrap(body)
	if unwrapErr != nil {
		var apiErr *APIError
		if errors.As(unwrapErr, &apiErr) {
			return nil, apiErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// Failure status with a non-JSON body, e.g. a proxy's HTML error page
			return nil, &APIError{Code: "HTTP_ERROR", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
		}
		return nil, unwrapErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Failure status without an error envelope
		return nil, &APIError{Code: "HTTP_ERROR", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	return payload, nil
}
