package streams

import "fmt"

// Event types published on the progress stream.
const (
	EventToolCall   = "research.tool_call"
	EventToolResult = "research.tool_result"
	EventAnnotation = "research.annotation"

	PayloadV1 = "v1"
)

// Definition describes a schema entry managed by the registry.
type Definition struct {
	EventType string
	Version   string
	Schema    []byte
}

var baseDefinitions = []Definition{
	{
		EventType: EventToolCall,
		Version:   PayloadV1,
		Schema: []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["state", "toolCallId", "toolName"],
  "properties": {
    "state": {"const": "call"},
    "toolCallId": {"type": "string", "minLength": 1},
    "toolName": {"type": "string", "enum": ["search", "retrieve", "videoSearch"]},
    "args": {"type": "object"},
    "description": {"type": "string"}
  },
  "additionalProperties": true
}`),
	},
	{
		EventType: EventToolResult,
		Version:   PayloadV1,
		Schema: []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["state", "toolCallId", "toolName"],
  "properties": {
    "state": {"const": "result"},
    "toolCallId": {"type": "string", "minLength": 1},
    "toolName": {"type": "string"},
    "result": {"type": "object"},
    "error": {"type": "string"}
  },
  "oneOf": [
    {"required": ["result"], "not": {"required": ["error"]}},
    {"required": ["error"], "not": {"required": ["result"]}}
  ],
  "additionalProperties": true
}`),
	},
	{
		EventType: EventAnnotation,
		Version:   PayloadV1,
		Schema: []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "language", "executedSteps", "sources"],
  "properties": {
    "type": {"type": "string", "enum": ["tool-plan", "tool-fallback"]},
    "language": {"type": "string", "minLength": 2},
    "executedSteps": {"type": "array"},
    "sources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["marker", "url", "stepId"],
        "properties": {
          "marker": {"type": "string", "pattern": "^\\[[0-9]+\\]$"},
          "url": {"type": "string"},
          "stepId": {"type": "string"}
        }
      }
    }
  },
  "additionalProperties": true
}`),
	},
}

// RegisterBaseSchemas loads the progress event schemas into reg.
func RegisterBaseSchemas(reg *SchemaRegistry) error {
	if reg == nil {
		return fmt.Errorf("registry is nil")
	}
	for _, def := range baseDefinitions {
		if err := reg.Register(def.EventType, def.Version, def.Schema); err != nil {
			return fmt.Errorf("register %s %s: %w", def.EventType, def.Version, err)
		}
	}
	return nil
}
