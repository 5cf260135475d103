package core

import (
	"context"
	"encoding/json"

	"github.com/mohammad-safakhou/researcher/internal/planner"
)

// ProgressState tags the two events emitted per invocation.
type ProgressState string

const (
	ProgressCall   ProgressState = "call"
	ProgressResult ProgressState = "result"
)

// ProgressEvent is a live "tool call" or "tool result" update. A result event
// reuses the ToolCallID of its call event.
type ProgressEvent struct {
	State       ProgressState    `json:"state"`
	ToolCallID  string           `json:"toolCallId"`
	ToolName    planner.ToolName `json:"toolName"`
	Args        json.RawMessage  `json:"args,omitempty"`
	Description string           `json:"description,omitempty"`
	Result      json.RawMessage  `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// ProgressSink receives progress events in emission order. Emit must not reorder events.
type ProgressSink interface {
	Emit(ctx context.Context, ev ProgressEvent)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Emit(context.Context, ProgressEvent) {}

// MultiSink fans events out to several sinks in order.
type MultiSink []ProgressSink

func (m MultiSink) Emit(ctx context.Context, ev ProgressEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}
