package openai_provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/researcher/provider"
	openai "github.com/sashabaranov/go-openai"
)

// Options configures the OpenAI client.
type Options struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
}

// Client implements provider.Provider on top of the Chat Completions API.
type Client struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI client. BaseURL may point at any OpenAI-compatible endpoint.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key not configured")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = openai.GPT4oMini
	}
	return &Client{client: openai.NewClientWithConfig(cfg), opts: opts}, nil
}

func (c *Client) Name() provider.Client { return provider.OpenAI }

// GenerateObject requests a json_schema constrained completion and returns the raw JSON object.
func (c *Client) GenerateObject(ctx context.Context, req provider.ObjectRequest) (json.RawMessage, error) {
	name := req.SchemaName
	if name == "" {
		name = "response"
	}
	chatReq := c.chatRequest(req.Model, req.System, req.Messages, req.MaxTokens)
	chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   name,
			Schema: req.Schema,
			Strict: false,
		},
	}
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai: structured completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choices returned")
	}
	raw, err := provider.ExtractJSONObject(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return raw, nil
}

// StreamText streams the answer, forwarding content deltas in order.
func (c *Client) StreamText(ctx context.Context, req provider.TextRequest, onDelta func(string) error) error {
	chatReq := c.chatRequest(req.Model, req.System, req.Messages, req.MaxTokens)
	chatReq.Stream = true
	stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return fmt.Errorf("openai: open stream: %w", err)
	}
	defer stream.Close()
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("openai: stream: %w", err)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onDelta(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
}

func (c *Client) chatRequest(model, system string, messages []provider.Message, maxTokens int) openai.ChatCompletionRequest {
	if model == "" {
		model = c.opts.DefaultModel
	}
	if maxTokens == 0 {
		maxTokens = c.opts.MaxTokens
	}
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: chatRole(m.Role), Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:               model,
		Messages:            out,
		Temperature:         c.opts.Temperature,
		MaxCompletionTokens: maxTokens,
	}
}

func chatRole(role string) string {
	switch role {
	case provider.RoleSystem:
		return openai.ChatMessageRoleSystem
	case provider.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
