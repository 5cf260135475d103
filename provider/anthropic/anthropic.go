package anthropic_provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mohammad-safakhou/researcher/provider"
)

const defaultMaxTokens = 4096

// Options configures the Anthropic client.
type Options struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxTokens    int
}

// Client implements provider.Provider on top of the Messages API.
// Structured output is obtained by forcing a single tool whose input schema is the requested schema.
type Client struct {
	client anthropic.Client
	opts   Options
}

// New creates an Anthropic client.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("anthropic api key not configured")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if strings.TrimSpace(opts.BaseURL) != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = "claude-sonnet-4-20250514"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	return &Client{client: anthropic.NewClient(reqOpts...), opts: opts}, nil
}

func (c *Client) Name() provider.Client { return provider.Anthropic }

// GenerateObject forces a tool call and returns the accumulated tool input.
func (c *Client) GenerateObject(ctx context.Context, req provider.ObjectRequest) (json.RawMessage, error) {
	name := req.SchemaName
	if name == "" {
		name = "response"
	}
	var schema anthropic.ToolInputSchemaParam
	if err := json.Unmarshal(req.Schema, &schema); err != nil {
		return nil, fmt.Errorf("anthropic: invalid schema for %s: %w", name, err)
	}
	tool := anthropic.ToolUnionParamOfTool(schema, name)
	if tool.OfTool == nil {
		return nil, fmt.Errorf("anthropic: invalid tool definition for %s", name)
	}
	tool.OfTool.Description = anthropic.String("Return the result as the input of this tool.")

	params := c.params(req.Model, req.System, req.Messages, req.MaxTokens)
	params.Tools = []anthropic.ToolUnionParam{tool}
	params.ToolChoice = anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: name}}

	stream := c.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()
	var input, text strings.Builder
	for stream.Next() {
		event := stream.Current()
		if event.Type != "content_block_delta" {
			continue
		}
		delta := event.AsContentBlockDelta().Delta
		switch delta.Type {
		case "input_json_delta":
			input.WriteString(delta.PartialJSON)
		case "text_delta":
			text.WriteString(delta.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic: structured completion: %w", err)
	}
	if input.Len() > 0 {
		raw := json.RawMessage(input.String())
		if !json.Valid(raw) {
			return nil, errors.New("anthropic: tool input is not valid JSON")
		}
		return raw, nil
	}
	raw, err := provider.ExtractJSONObject(text.String())
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return raw, nil
}

// StreamText streams text deltas in order.
func (c *Client) StreamText(ctx context.Context, req provider.TextRequest, onDelta func(string) error) error {
	stream := c.client.Messages.NewStreaming(ctx, c.params(req.Model, req.System, req.Messages, req.MaxTokens))
	defer stream.Close()
	for stream.Next() {
		event := stream.Current()
		if event.Type != "content_block_delta" {
			continue
		}
		delta := event.AsContentBlockDelta().Delta
		if delta.Type != "text_delta" || delta.Text == "" {
			continue
		}
		if err := onDelta(delta.Text); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic: stream: %w", err)
	}
	return nil
}

func (c *Client) params(model, system string, messages []provider.Message, maxTokens int) anthropic.MessageNewParams {
	if model == "" {
		model = c.opts.DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = c.opts.MaxTokens
	}
	leading, turns := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  turns,
	}
	systemParts := make([]string, 0, len(leading)+1)
	if system != "" {
		systemParts = append(systemParts, system)
	}
	systemParts = append(systemParts, leading...)
	if len(systemParts) > 0 {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: strings.Join(systemParts, "\n\n")}}
	}
	return params
}

// convertMessages splits off the system turns that precede the conversation.
// Later system turns (such as the final answer instruction after the research
// summary) stay in place as user turns: Anthropic reads a trailing assistant
// turn as a prefill to continue. Consecutive turns of one role are merged.
func convertMessages(messages []provider.Message) ([]string, []anthropic.MessageParam) {
	var leading []string
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role == provider.RoleSystem && len(out) == 0 {
			leading = append(leading, m.Content)
			continue
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == provider.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		block := anthropic.NewTextBlock(m.Content)
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, block)
			continue
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: []anthropic.ContentBlockParamUnion{block}})
	}
	return leading, out
}
