package streams

import (
	"context"
	"sync"

	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ProgressSink publishes the progress events of one request to a Redis stream.
// Events are written synchronously so the stream preserves emission order.
// Publish failures are logged and never interrupt the request.
type ProgressSink struct {
	publisher      *Publisher
	stream         string
	maxLen         int64
	requestID      string
	conversationID string
	logger         *zap.Logger

	mu  sync.Mutex
	seq int
}

// NewProgressSink creates a sink for one request.
func NewProgressSink(p *Publisher, stream string, maxLen int64, requestID, conversationID string, logger *zap.Logger) *ProgressSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressSink{
		publisher:      p,
		stream:         stream,
		maxLen:         maxLen,
		requestID:      requestID,
		conversationID: conversationID,
		logger:         logger.Named("progress"),
	}
}

var _ core.ProgressSink = (*ProgressSink)(nil)

func (s *ProgressSink) Emit(ctx context.Context, ev core.ProgressEvent) {
	eventType := EventToolCall
	if ev.State == core.ProgressResult {
		eventType = EventToolResult
	}
	s.publish(ctx, eventType, ev)
}

// EmitAnnotation publishes the final annotation of the request.
func (s *ProgressSink) EmitAnnotation(ctx context.Context, ann *core.Annotation) {
	if ann == nil {
		return
	}
	s.publish(ctx, EventAnnotation, ann)
}

func (s *ProgressSink) publish(ctx context.Context, eventType string, payload interface{}) {
	if s == nil || s.publisher == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	env := Envelope{
		EventType:      eventType,
		RequestID:      s.requestID,
		ConversationID: s.conversationID,
		Sequence:       s.seq,
		PayloadVersion: PayloadV1,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		env.TraceID = sc.TraceID().String()
	}
	s.seq++
	if _, err := s.publisher.PublishRaw(ctx, s.stream, env, payload, WithMaxLenApprox(s.maxLen)); err != nil {
		s.logger.Warn("publish progress event",
			zap.String("stream", s.stream),
			zap.String("event_type", eventType),
			zap.String("request_id", s.requestID),
			zap.Error(err))
	}
}
