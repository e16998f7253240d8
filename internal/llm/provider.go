package llm

import (
	"context"
	"encoding/json"
)

// Provider is the single abstraction the rest of cramble talks to when
// it needs model output.
type Provider interface {
	// Generate runs one request against the model. When req.Schema is
	// set the provider asks for structured output and the returned
	// Content is JSON that already passed schema validation. Output cut
	// off at MaxTokens comes back as *ErrMaxTokensExceeded rather than
	// as a partial Response.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID reports the resolved model identifier requests run against.
	ModelID() string
}

// Request describes one generation call.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation so far. Unit generation sends a
	// single user message; follow-up turns carry the history.
	Messages []Message

	// Schema, when set, selects the provider's native structured output
	// mechanism, and the response must conform to it. When nil the
	// response Content is raw text.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls sampling randomness, 0.0 to 1.0. The zero
	// value means deterministic.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names and defines the JSON structure expected back.
type Schema struct {
	// Name identifies the schema where providers want one (OpenAI's
	// response_format) and keys the compiled validator cache.
	// Kebab-case, e.g. "review-units".
	Name string

	// Description tells the model what the structure represents.
	Description string

	// Definition is the JSON Schema document as a map.
	Definition map[string]any
}

// Response is the model's output.
type Response struct {
	// Content is the generated output: validated JSON when the request
	// carried a Schema, otherwise the raw text wrapped as a JSON string.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the model that actually served the request.
	Model string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
