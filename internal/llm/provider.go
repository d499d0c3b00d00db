package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one completion per call. Implementations wrap a
// vendor SDK; decorators add retry and request logging.
type Provider interface {
	// Generate sends the request and returns the model's reply. When
	// req.Schema is set the reply is JSON validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes one generation call. Tutor replies, error detection
// and final feedback send a single user message holding the whole prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema switches the provider to its native structured output mode.
	// Nil means free text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name is the kebab-case schema name sent to OpenAI and the key of the
	// compiled-schema cache, e.g. "learner-summary".
	Name string

	// Description is sent alongside the schema to guide generation.
	Description string

	// Definition is the JSON Schema document.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the reply text, or the validated JSON object when the
	// request carried a Schema.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request, which may be a
	// dated variant of ModelID.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
