package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// costPer1KTokens is the approximate completion cost used for usage records.
const costPer1KTokens = 0.015

// ChatClient calls an OpenAI-compatible chat completions API (x.ai Grok).
type ChatClient struct {
	client *openai.Client
	model  string
}

// NewChatClient creates a chat gateway client against the given base URL
// (e.g. https://api.x.ai/v1).
func NewChatClient(apiKey, baseURL, model string) *ChatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &ChatClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete runs one chat completion and returns the generated text plus total
// token usage. Non-2xx upstream responses are returned as *Error; no retry.
func (c *ChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (string, int, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			gwErr := &Error{
				StatusCode: apiErr.HTTPStatusCode,
				RawBody:    apiErr.Message,
				Message:    apiErr.Message,
			}
			log.Error().
				Int("status", gwErr.StatusCode).
				Str("message", gwErr.Message).
				Msg("Chat completion API returned error")
			return "", 0, gwErr
		}
		return "", 0, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, resp.Usage.TotalTokens, nil
}

// EstimateCost converts token usage into an approximate dollar cost.
func EstimateCost(tokensUsed int) float64 {
	return float64(tokensUsed) / 1000 * costPer1KTokens
}
