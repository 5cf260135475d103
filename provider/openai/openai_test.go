package openai_provider

import (
	"testing"

	"github.com/mohammad-safakhou/researcher/provider"
	openai "github.com/sashabaranov/go-openai"
)

func TestChatRequestRolesAndDefaults(t *testing.T) {
	c, err := New(Options{APIKey: "sk-test", MaxTokens: 300, Temperature: 0.2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := c.chatRequest("", "plan carefully", []provider.Message{
		{Role: provider.RoleUser, Content: "What changed in Go 1.23?"},
		{Role: provider.RoleAssistant, Content: "Research summary [1]"},
		{Role: provider.RoleSystem, Content: "Answer using sources [1]."},
		{Role: "tool", Content: "odd role"},
	}, 0)

	if req.Model != openai.GPT4oMini {
		t.Fatalf("model = %q, want default", req.Model)
	}
	if req.MaxCompletionTokens != 300 || req.Temperature != 0.2 {
		t.Fatalf("options not applied: max=%d temp=%v", req.MaxCompletionTokens, req.Temperature)
	}
	wantRoles := []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
	}
	if len(req.Messages) != len(wantRoles) {
		t.Fatalf("messages = %d, want %d", len(req.Messages), len(wantRoles))
	}
	for i, role := range wantRoles {
		if req.Messages[i].Role != role {
			t.Errorf("message %d role = %s, want %s", i, req.Messages[i].Role, role)
		}
	}
	if req.Messages[0].Content != "plan carefully" {
		t.Fatalf("system prompt = %q", req.Messages[0].Content)
	}
}

func TestChatRequestExplicitModel(t *testing.T) {
	c, err := New(Options{APIKey: "sk-test", DefaultModel: "gpt-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := c.chatRequest("gpt-other", "", []provider.Message{{Role: provider.RoleUser, Content: "hi"}}, 50)
	if req.Model != "gpt-other" || req.MaxCompletionTokens != 50 {
		t.Fatalf("model=%q max=%d", req.Model, req.MaxCompletionTokens)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("empty system prompt should be omitted, got %d messages", len(req.Messages))
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
