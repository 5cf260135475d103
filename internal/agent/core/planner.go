package core

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/researcher/internal/planner"
	"github.com/mohammad-safakhou/researcher/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var plannerTracer trace.Tracer = otel.Tracer("researcher/internal/agent/planner")

const planningInstruction = `You are a research planning agent. Read the conversation and decide which research tools, if any, help answer the user's latest message.

AVAILABLE TOOLS:
- search: general web search for a text query. Use it for facts, news, comparisons and anything that benefits from current sources.
- retrieve: extract the content of a single URL. Use it ONLY when the user explicitly shared that URL in the conversation.
- videoSearch: search for videos. Use it ONLY when the request is clearly about videos or other multimedia.
- none: record a deliberate decision that no tool is needed.

PLANNING REQUIREMENTS:
1. Produce at most 6 plan steps, each with a short "step" title and a "detail" sentence.
2. Produce at most 6 tool invocations in total. Give each a short id, the tool name, a one-sentence description and its parameters.
3. search parameters: "query" (required), optional "max_results" (1-10), "search_depth" ("basic" or "advanced"), "include_domains" and "exclude_domains" (lists of bare domains).
4. retrieve parameters: "url" (required, copied exactly from the conversation).
5. videoSearch parameters: "query" (required), optional "max_results" (1-10).
6. NEVER invent URLs. Never retrieve a URL the user did not share.
7. Write every natural-language field (plan steps, details, descriptions, finalResponseInstruction) in the same language as the user's latest message.
8. finalResponseInstruction tells the answering assistant how to use the research; leave it empty when the default is fine.

Respond with JSON matching the provided schema.`

// Planner asks a model for a structured research plan.
type Planner struct {
	llm       provider.ObjectGenerator
	logger    *zap.Logger
	maxTokens int
}

// NewPlanner creates a planner backed by llm.
func NewPlanner(llm provider.ObjectGenerator, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{llm: llm, logger: logger.Named("planner"), maxTokens: 2000}
}

// BuildPlan issues one structured-generation request and decodes the plan.
// Model and schema errors are returned to the caller unchanged in kind.
func (p *Planner) BuildPlan(ctx context.Context, messages []Message, model string) (planner.ToolPlan, error) {
	ctx, span := plannerTracer.Start(ctx, "planner.build", trace.WithAttributes(
		attribute.String("llm.model", model),
		attribute.Int("conversation.messages", len(messages)),
	))
	defer span.End()

	if p.llm == nil {
		err := ErrNoProvider
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return planner.ToolPlan{}, err
	}

	schema, err := planner.ToolPlanSchema()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schema")
		return planner.ToolPlan{}, err
	}

	start := time.Now()
	raw, err := p.llm.GenerateObject(ctx, provider.ObjectRequest{
		Model:      model,
		System:     planningInstruction,
		Messages:   ProviderMessages(messages),
		SchemaName: "tool_plan",
		Schema:     schema,
		MaxTokens:  p.maxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate")
		return planner.ToolPlan{}, fmt.Errorf("generate plan: %w", err)
	}

	plan, err := planner.DecodeToolPlan(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return planner.ToolPlan{}, fmt.Errorf("decode plan: %w", err)
	}

	span.SetAttributes(
		attribute.Int("plan.steps", len(plan.Plan)),
		attribute.Int("plan.invocations", len(plan.ToolInvocations)),
	)
	span.SetStatus(codes.Ok, "planned")
	p.logger.Debug("plan built",
		zap.Int("steps", len(plan.Plan)),
		zap.Int("invocations", len(plan.ToolInvocations)),
		zap.Duration("took", time.Since(start)))
	return plan, nil
}
