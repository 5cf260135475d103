package core

import (
	"encoding/json"
	"testing"

	"github.com/mohammad-safakhou/researcher/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageUnmarshalContentForms(t *testing.T) {
	var msgs []Message
	raw := `[
		{"role": "user", "content": "plain text"},
		{"role": "assistant", "content": [{"type": "text", "text": "part one"}, {"type": "image", "text": "ignored"}, {"type": "text", "text": "part two"}]},
		{"role": "user", "content": null}
	]`
	require.NoError(t, json.Unmarshal([]byte(raw), &msgs))
	require.Len(t, msgs, 3)
	assert.Equal(t, "plain text", msgs[0].Text())
	assert.Equal(t, "part one\npart two", msgs[1].Text())
	assert.Equal(t, "", msgs[2].Text())

	out, err := json.Marshal(msgs[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"assistant","content":[{"type":"text","text":"part one"},{"type":"image","text":"ignored"},{"type":"text","text":"part two"}]}`, string(out))
}

func TestMessageUnmarshalRejectsObjectContent(t *testing.T) {
	var m Message
	assert.Error(t, json.Unmarshal([]byte(`{"role":"user","content":{"a":1}}`), &m))
}

func TestLastUserText(t *testing.T) {
	msgs := []Message{
		userMessage("first question"),
		{Role: "assistant", Content: "an answer"},
		{Role: "user", Parts: []ContentPart{{Type: "text", Text: "  follow up  "}}},
		{Role: "assistant", Content: "thinking"},
	}
	assert.Equal(t, "follow up", LastUserText(msgs))
	assert.Equal(t, "", LastUserText(nil))
}

func TestProviderMessagesSkipsEmptyAndUnknownRoles(t *testing.T) {
	got := ProviderMessages([]Message{
		userMessage("hello"),
		{Role: "tool", Content: "raw tool output"},
		{Role: "assistant", Content: "   "},
		{Role: "assistant", Content: "hi"},
	})
	assert.Equal(t, []provider.Message{
		{Role: provider.RoleUser, Content: "hello"},
		{Role: provider.RoleAssistant, Content: "hi"},
	}, got)
}
