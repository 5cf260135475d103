package anthropic_provider

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/mohammad-safakhou/researcher/provider"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(Options{APIKey: "test-key", DefaultModel: "claude-test", MaxTokens: 512})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func textOf(t *testing.T, m anthropic.MessageParam) []string {
	t.Helper()
	out := make([]string, 0, len(m.Content))
	for _, block := range m.Content {
		if block.OfText == nil {
			t.Fatalf("unexpected non-text block in %s turn", m.Role)
		}
		out = append(out, block.OfText.Text)
	}
	return out
}

func TestParamsResearchTurnEndsOnUser(t *testing.T) {
	c := newTestClient(t)
	params := c.params("", "", []provider.Message{
		{Role: provider.RoleUser, Content: "What changed in Go 1.23?"},
		{Role: provider.RoleAssistant, Content: "Research overview"},
		{Role: provider.RoleAssistant, Content: "Research summary [1]"},
		{Role: provider.RoleSystem, Content: "Answer using sources [1]."},
	}, 0)

	if len(params.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(params.Messages))
	}
	last := params.Messages[len(params.Messages)-1]
	if last.Role != anthropic.MessageParamRoleUser {
		t.Fatalf("last role = %s, want user", last.Role)
	}
	if got := textOf(t, last); len(got) != 1 || got[0] != "Answer using sources [1]." {
		t.Fatalf("final instruction turn = %q", got)
	}
	mid := params.Messages[1]
	if mid.Role != anthropic.MessageParamRoleAssistant || len(mid.Content) != 2 {
		t.Fatalf("assistant turns not merged: role=%s blocks=%d", mid.Role, len(mid.Content))
	}
	if len(params.System) != 0 {
		t.Fatalf("system = %+v, want none", params.System)
	}
	if params.Model != "claude-test" || params.MaxTokens != 512 {
		t.Fatalf("defaults not applied: model=%s max=%d", params.Model, params.MaxTokens)
	}
}

func TestParamsLeadingSystemFolded(t *testing.T) {
	c := newTestClient(t)
	params := c.params("claude-other", "plan carefully", []provider.Message{
		{Role: provider.RoleSystem, Content: "be brief"},
		{Role: provider.RoleUser, Content: "hi"},
		{Role: provider.RoleAssistant, Content: "   "},
		{Role: provider.RoleUser, Content: "weather?"},
	}, 100)

	if len(params.System) != 1 || params.System[0].Text != "plan carefully\n\nbe brief" {
		t.Fatalf("system = %+v", params.System)
	}
	if len(params.Messages) != 1 {
		t.Fatalf("messages = %d, want 1 merged user turn", len(params.Messages))
	}
	if got := textOf(t, params.Messages[0]); len(got) != 2 || got[1] != "weather?" {
		t.Fatalf("user turn = %q", got)
	}
	if params.Model != "claude-other" || params.MaxTokens != 100 {
		t.Fatalf("overrides not applied: model=%s max=%d", params.Model, params.MaxTokens)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
