package core

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var (
	coreMetricsOnce sync.Once
	toolInvocations otelmetric.Int64Counter
	fallbackRuns    otelmetric.Int64Counter
)

func initCoreMetrics(logger *zap.Logger) {
	meter := otel.Meter("researcher/internal/agent/core")
	var err error
	toolInvocations, err = meter.Int64Counter(
		"researcher_tool_invocations_total",
		otelmetric.WithDescription("Tool invocations run by the research pipeline"),
	)
	if err != nil {
		logger.Warn("core metrics init", zap.String("instrument", "researcher_tool_invocations_total"), zap.Error(err))
	}
	fallbackRuns, err = meter.Int64Counter(
		"researcher_fallback_total",
		otelmetric.WithDescription("Orchestrations that took the single-search fallback"),
	)
	if err != nil {
		logger.Warn("core metrics init", zap.String("instrument", "researcher_fallback_total"), zap.Error(err))
	}
}

func recordToolInvocation(ctx context.Context, logger *zap.Logger, tool string, failed bool) {
	coreMetricsOnce.Do(func() { initCoreMetrics(logger) })
	if toolInvocations == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	toolInvocations.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}

func recordFallback(ctx context.Context, logger *zap.Logger, reason string) {
	coreMetricsOnce.Do(func() { initCoreMetrics(logger) })
	if fallbackRuns == nil {
		return
	}
	fallbackRuns.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("reason", reason)))
}
