package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var runnerTracer trace.Tracer = otel.Tracer("researcher/internal/agent/runner")

// Runner executes validated invocations one at a time.
type Runner struct {
	tools  Toolset
	logger *zap.Logger
	newID  func() string
}

// NewRunner creates a runner over tools.
func NewRunner(tools Toolset, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{tools: tools, logger: logger.Named("runner"), newID: uuid.NewString}
}

// Execute runs every invocation in order. Each invocation's call and result
// events are emitted before the next invocation starts; a failing invocation is
// recorded on its step and does not stop the batch.
func (r *Runner) Execute(ctx context.Context, invocations []ValidatedInvocation, sink ProgressSink) []ExecutedStep {
	steps := make([]ExecutedStep, 0, len(invocations))
	for _, inv := range invocations {
		steps = append(steps, r.RunOne(ctx, inv, sink))
	}
	return steps
}

// RunOne runs a single invocation and emits its call and result events.
func (r *Runner) RunOne(ctx context.Context, inv ValidatedInvocation, sink ProgressSink) ExecutedStep {
	if sink == nil {
		sink = NopSink{}
	}
	params := withDefaults(inv.Params)
	tool := inv.Invocation.Tool
	callID := r.newID()

	ctx, span := runnerTracer.Start(ctx, "runner.invoke", trace.WithAttributes(
		attribute.String("tool.name", string(tool)),
		attribute.String("tool.call_id", callID),
		attribute.String("step.id", inv.Invocation.ID),
	))
	defer span.End()

	args, _ := json.Marshal(params)
	sink.Emit(ctx, ProgressEvent{
		State:       ProgressCall,
		ToolCallID:  callID,
		ToolName:    tool,
		Args:        args,
		Description: inv.Invocation.Description,
	})

	step := ExecutedStep{
		ID:          inv.Invocation.ID,
		Tool:        tool,
		Description: inv.Invocation.Description,
		Parameters:  params,
	}
	result, err := r.invoke(ctx, params)
	done := ProgressEvent{State: ProgressResult, ToolCallID: callID, ToolName: tool}
	if err != nil {
		step.Error = errorMessage(err)
		done.Error = step.Error
		span.RecordError(err)
		span.SetStatus(codes.Error, step.Error)
		r.logger.Warn("tool invocation failed",
			zap.String("id", step.ID),
			zap.String("tool", string(tool)),
			zap.Error(err))
	} else {
		step.Result = result
		done.Result, _ = json.Marshal(result)
		span.SetStatus(codes.Ok, "completed")
	}
	sink.Emit(ctx, done)
	recordToolInvocation(ctx, r.logger, string(tool), err != nil)
	return step
}

func (r *Runner) invoke(ctx context.Context, params ToolParams) (ToolResult, error) {
	if r.tools == nil {
		return nil, errors.New("no tools configured")
	}
	switch p := params.(type) {
	case SearchParams:
		return r.tools.Search(ctx, p)
	case RetrieveParams:
		return r.tools.Retrieve(ctx, p)
	case VideoSearchParams:
		return r.tools.VideoSearch(ctx, p)
	default:
		return nil, fmt.Errorf("unsupported tool parameters %T", params)
	}
}

// withDefaults fills the values a tool assumes when a parameter is absent.
func withDefaults(params ToolParams) ToolParams {
	if p, ok := params.(SearchParams); ok {
		if p.SearchDepth != SearchDepthBasic && p.SearchDepth != SearchDepthAdvanced {
			p.SearchDepth = SearchDepthBasic
		}
		return p
	}
	return params
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "unknown error"
}
