package provider

import (
	"context"
	"encoding/json"
	"errors"
)

// Client names a model vendor.
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// ErrUnsupportedProvider is returned for a provider type with no implementation.
var ErrUnsupportedProvider = errors.New("unsupported LLM provider")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one plain-text chat turn handed to a model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ObjectRequest asks a model for a JSON value conforming to Schema.
type ObjectRequest struct {
	Model      string
	System     string
	Messages   []Message
	SchemaName string
	Schema     json.RawMessage
	MaxTokens  int
}

// TextRequest asks a model for a free-text answer.
type TextRequest struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int
}

// ObjectGenerator produces structured output.
type ObjectGenerator interface {
	GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error)
}

// TextStreamer streams a free-text answer, calling onDelta for each chunk in order.
// Returning an error from onDelta aborts the stream.
type TextStreamer interface {
	StreamText(ctx context.Context, req TextRequest, onDelta func(string) error) error
}

// Provider is the contract every model vendor implementation satisfies.
type Provider interface {
	ObjectGenerator
	TextStreamer
	Name() Client
}
