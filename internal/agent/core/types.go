package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/researcher/internal/agent/locale"
	"github.com/mohammad-safakhou/researcher/internal/planner"
	"github.com/mohammad-safakhou/researcher/provider"
)

// ContentPart is one typed part of a multi-part message. Only "text" parts carry text.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is one conversation turn. Content is either a plain string or a list of parts.
type Message struct {
	Role    string        `json:"role"`
	Content string        `json:"-"`
	Parts   []ContentPart `json:"-"`
}

// Text returns the textual content of the message, joining text parts with newlines.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	texts := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Type == "text" && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (m Message) MarshalJSON() ([]byte, error) {
	type wire struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	}
	if len(m.Parts) > 0 {
		return json.Marshal(wire{Role: m.Role, Content: m.Parts})
	}
	return json.Marshal(wire{Role: m.Role, Content: m.Content})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.Role, m.Content, m.Parts = wire.Role, "", nil
	content := bytes.TrimSpace(wire.Content)
	switch {
	case len(content) == 0 || bytes.Equal(content, []byte("null")):
	case content[0] == '"':
		if err := json.Unmarshal(content, &m.Content); err != nil {
			return fmt.Errorf("message content: %w", err)
		}
	case content[0] == '[':
		if err := json.Unmarshal(content, &m.Parts); err != nil {
			return fmt.Errorf("message parts: %w", err)
		}
	default:
		return fmt.Errorf("message content must be a string or a list of parts")
	}
	return nil
}

// LastUserText returns the trimmed text of the most recent user message.
func LastUserText(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == provider.RoleUser {
			return strings.TrimSpace(messages[i].Text())
		}
	}
	return ""
}

// ProviderMessages flattens the conversation into the plain-text turns a model accepts.
func ProviderMessages(messages []Message) []provider.Message {
	out := make([]provider.Message, 0, len(messages))
	for _, m := range messages {
		text := strings.TrimSpace(m.Text())
		if text == "" {
			continue
		}
		switch m.Role {
		case provider.RoleUser, provider.RoleAssistant, provider.RoleSystem:
			out = append(out, provider.Message{Role: m.Role, Content: text})
		}
	}
	return out
}

// SearchItem is one search or retrieve hit.
type SearchItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// VideoItem is one video search hit.
type VideoItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
}

// ToolResult is the payload of a successful invocation: SearchResult, RetrieveResult or VideoResult.
type ToolResult interface {
	Tool() planner.ToolName
}

type SearchResult struct {
	Results []SearchItem `json:"results"`
}

type RetrieveResult struct {
	Results []SearchItem `json:"results"`
}

type VideoResult struct {
	Videos []VideoItem `json:"videos"`
}

func (SearchResult) Tool() planner.ToolName   { return planner.ToolSearch }
func (RetrieveResult) Tool() planner.ToolName { return planner.ToolRetrieve }
func (VideoResult) Tool() planner.ToolName    { return planner.ToolVideoSearch }

// ToolParams is the validated parameter set of one invocation.
type ToolParams interface {
	Tool() planner.ToolName
}

// SearchParams are the parameters of the search tool.
type SearchParams struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

// RetrieveParams are the parameters of the retrieve tool.
type RetrieveParams struct {
	URL string `json:"url"`
}

// VideoSearchParams are the parameters of the video search tool.
type VideoSearchParams struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

func (SearchParams) Tool() planner.ToolName      { return planner.ToolSearch }
func (RetrieveParams) Tool() planner.ToolName    { return planner.ToolRetrieve }
func (VideoSearchParams) Tool() planner.ToolName { return planner.ToolVideoSearch }

// Toolset is the set of research backends the runner dispatches to.
type Toolset interface {
	Search(ctx context.Context, p SearchParams) (SearchResult, error)
	Retrieve(ctx context.Context, p RetrieveParams) (RetrieveResult, error)
	VideoSearch(ctx context.Context, p VideoSearchParams) (VideoResult, error)
}

// ValidatedInvocation pairs a planned invocation with its validated parameters.
type ValidatedInvocation struct {
	Invocation planner.ToolInvocation
	Params     ToolParams
}

// ExecutedStep records the outcome of running one invocation. Error is set iff the run failed.
type ExecutedStep struct {
	ID          string           `json:"id"`
	Tool        planner.ToolName `json:"tool"`
	Description string           `json:"description"`
	Parameters  ToolParams       `json:"parameters"`
	Result      ToolResult       `json:"result"`
	Error       string           `json:"error,omitempty"`
}

// Failed reports whether the step recorded an error.
func (s ExecutedStep) Failed() bool { return s.Error != "" }

// SourceReference is one citable item extracted from a step result.
type SourceReference struct {
	Marker string `json:"marker"`
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	StepID string `json:"stepId"`
}

// ExecutionSummary is the narrative summary plus its ordered sources.
type ExecutionSummary struct {
	Summary string            `json:"summary"`
	Sources []SourceReference `json:"sources"`
}

// Annotation types.
const (
	AnnotationToolPlan     = "tool-plan"
	AnnotationToolFallback = "tool-fallback"
)

// Annotation is the side-channel payload surfaced to the UI and persisted with the run.
type Annotation struct {
	Type                     string                   `json:"type"`
	Language                 locale.Tag               `json:"language"`
	Plan                     []planner.PlanStep       `json:"plan"`
	ToolInvocations          []planner.ToolInvocation `json:"toolInvocations"`
	FinalResponseInstruction string                   `json:"finalResponseInstruction"`
	ExecutedSteps            []ExecutedStep           `json:"executedSteps"`
	Sources                  []SourceReference        `json:"sources"`
}

// Result is what one orchestration hands back to its caller.
type Result struct {
	ToolCallDataAnnotation *Annotation        `json:"toolCallDataAnnotation"`
	ToolCallMessages       []provider.Message `json:"toolCallMessages"`
}

// EmptyResult is the "no tool augmentation" outcome.
func EmptyResult() Result {
	return Result{ToolCallDataAnnotation: nil, ToolCallMessages: []provider.Message{}}
}

// Empty reports whether the result carries no augmentation.
func (r Result) Empty() bool {
	return r.ToolCallDataAnnotation == nil && len(r.ToolCallMessages) == 0
}
