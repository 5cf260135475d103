package streams

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var (
	streamMetricsOnce sync.Once
	progressEvents    otelmetric.Int64Counter
	publishFailures   otelmetric.Int64Counter
)

func initStreamMetrics() {
	meter := otel.Meter("researcher/queue/streams")
	var err error
	progressEvents, err = meter.Int64Counter(
		"researcher_progress_events_total",
		otelmetric.WithDescription("Progress events appended to Redis streams"),
	)
	if err != nil {
		zap.L().Warn("queue streams metrics init", zap.String("instrument", "researcher_progress_events_total"), zap.Error(err))
	}
	publishFailures, err = meter.Int64Counter(
		"researcher_progress_publish_failures_total",
		otelmetric.WithDescription("Progress events that could not be appended"),
	)
	if err != nil {
		zap.L().Warn("queue streams metrics init", zap.String("instrument", "researcher_progress_publish_failures_total"), zap.Error(err))
	}
}

func recordPublish(ctx context.Context, stream, eventType string, ok bool) {
	streamMetricsOnce.Do(initStreamMetrics)
	attrs := otelmetric.WithAttributes(
		attribute.String("stream", stream),
		attribute.String("event_type", eventType),
	)
	if ok {
		if progressEvents != nil {
			progressEvents.Add(contextOrBackground(ctx), 1, attrs)
		}
		return
	}
	if publishFailures != nil {
		publishFailures.Add(contextOrBackground(ctx), 1, attrs)
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
