// Package gateway wraps the external generation APIs: MiniMax for music and an
// OpenAI-compatible chat completions endpoint (x.ai Grok) for text assists.
// Every call is a single attempt; callers decide whether a failure is fatal.
package gateway

import (
	"encoding/json"
	"fmt"
)

// Error is returned when an upstream API responds with a non-2xx status.
type Error struct {
	StatusCode int
	RawBody    string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Message)
}

// newError builds an Error from a non-2xx response body. The body is parsed
// as JSON for a structured message, falling back to the raw text.
func newError(statusCode int, body []byte) *Error {
	message := "generation request failed"

	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Message != "":
			message = parsed.Message
		case parsed.Error != "":
			message = parsed.Error
		}
	} else if len(body) > 0 {
		message = string(body)
	}

	return &Error{
		StatusCode: statusCode,
		RawBody:    string(body),
		Message:    message,
	}
}
