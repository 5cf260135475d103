package core

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/researcher/internal/agent/locale"
	"github.com/mohammad-safakhou/researcher/internal/planner"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer trace.Tracer = otel.Tracer("researcher/internal/agent/orchestrator")

// FallbackStepID identifies the single search run by the fallback path.
const FallbackStepID = "fallback-search"

// Fallback reasons recorded on the fallback counter.
const (
	FallbackPlanningFailed = "planning_failed"
	FallbackNoInvocations  = "no_invocations"
	FallbackAllInvalid     = "all_invalid"
)

// PlanBuilder produces a research plan for a conversation.
type PlanBuilder interface {
	BuildPlan(ctx context.Context, messages []Message, model string) (planner.ToolPlan, error)
}

// Request is one research turn. Language, when it names a supported language,
// overrides detection from the last user message.
type Request struct {
	Messages   []Message `json:"messages"`
	Model      string    `json:"model"`
	SearchMode bool      `json:"searchMode"`
	Language   string    `json:"language,omitempty"`
}

// Orchestrator drives plan, validate, run, summarize and respond for one
// request, falling back to a single search when planning yields nothing usable.
type Orchestrator struct {
	planner   PlanBuilder
	validator *Validator
	runner    *Runner
	logger    *zap.Logger
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(pb PlanBuilder, tools Toolset, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		planner:   pb,
		validator: NewValidator(logger),
		runner:    NewRunner(tools, logger),
		logger:    logger.Named("orchestrator"),
	}
}

// Process runs one research turn. It never returns an error: every failure
// degrades to the fallback search or, at worst, to EmptyResult.
func (o *Orchestrator) Process(ctx context.Context, req Request, sink ProgressSink) Result {
	if !req.SearchMode {
		return EmptyResult()
	}
	if sink == nil {
		sink = NopSink{}
	}

	userText := LastUserText(req.Messages)
	tag, ok := locale.ParseTag(req.Language)
	if !ok {
		tag = locale.Detect(userText)
	}
	loc := locale.Get(tag)

	ctx, span := tracer.Start(ctx, "orchestrator.process", trace.WithAttributes(
		attribute.String("llm.model", req.Model),
		attribute.String("language", string(loc.Tag)),
	))
	defer span.End()

	if o.planner == nil {
		span.SetStatus(codes.Error, "no planner")
		return o.fallback(ctx, userText, loc, sink, FallbackPlanningFailed)
	}
	raw, err := o.planner.BuildPlan(ctx, req.Messages, req.Model)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning failed")
		o.logger.Warn("planning failed, falling back", zap.Error(err))
		return o.fallback(ctx, userText, loc, sink, FallbackPlanningFailed)
	}
	plan := Normalize(raw)

	executable := make([]planner.ToolInvocation, 0, len(plan.ToolInvocations))
	for _, inv := range plan.ToolInvocations {
		if inv.Tool.Executable() {
			executable = append(executable, inv)
		}
	}
	// A plan that deliberately needs no tools still takes the fallback search.
	if len(executable) == 0 {
		o.logger.Info("plan has no executable invocations, falling back", zap.Int("planned", len(plan.ToolInvocations)))
		return o.fallback(ctx, userText, loc, sink, FallbackNoInvocations)
	}

	validated := o.validator.ValidateAll(executable)
	if len(validated) == 0 {
		o.logger.Warn("no invocation passed validation, falling back", zap.Int("planned", len(executable)))
		return o.fallback(ctx, userText, loc, sink, FallbackAllInvalid)
	}

	steps := o.runner.Execute(ctx, validated, sink)

	summary := Summarize(steps, loc)
	span.SetAttributes(
		attribute.Int("steps.executed", len(steps)),
		attribute.Int("sources", len(summary.Sources)),
	)
	span.SetStatus(codes.Ok, "completed")
	return BuildResponder(ResponderInput{
		Type:             AnnotationToolPlan,
		Plan:             plan,
		Steps:            steps,
		Summary:          summary,
		Localization:     loc,
		FinalInstruction: plan.FinalResponseInstruction,
	})
}

func (o *Orchestrator) fallback(ctx context.Context, query string, loc locale.Localization, sink ProgressSink, reason string) Result {
	ctx, span := tracer.Start(ctx, "orchestrator.fallback", trace.WithAttributes(
		attribute.String("fallback.reason", reason),
	))
	defer span.End()
	recordFallback(ctx, o.logger, reason)

	if query == "" {
		span.SetStatus(codes.Error, ErrEmptyQuery.Error())
		o.logger.Info("fallback skipped", zap.Error(ErrEmptyQuery))
		return EmptyResult()
	}

	inv := planner.ToolInvocation{
		ID:          FallbackStepID,
		Tool:        planner.ToolSearch,
		Description: loc.FallbackSearchDescription(query),
		Parameters:  map[string]any{"query": query},
	}
	step := o.runner.RunOne(ctx, ValidatedInvocation{
		Invocation: inv,
		Params:     SearchParams{Query: query},
	}, sink)
	if step.Failed() {
		err := errors.New(step.Error)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback search failed")
		o.logger.Warn("fallback search failed", zap.Error(err))
		return EmptyResult()
	}

	steps := []ExecutedStep{step}
	summary := Summarize(steps, loc)
	span.SetStatus(codes.Ok, "completed")
	return BuildResponder(ResponderInput{
		Type: AnnotationToolFallback,
		Plan: planner.ToolPlan{
			Plan:            []planner.PlanStep{},
			ToolInvocations: []planner.ToolInvocation{inv},
		},
		Steps:            steps,
		Summary:          summary,
		Localization:     loc,
		FinalInstruction: loc.FallbackInstruction,
	})
}
