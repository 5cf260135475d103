package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Stream entry fields. The envelope field carries the full JSON envelope; the
// others are copies for XRANGE inspection without decoding.
const (
	envelopeField  = "envelope"
	eventTypeField = "event_type"
	requestIDField = "request_id"
)

// Publisher wraps Redis Stream publishing with schema validation.
type Publisher struct {
	client   redis.Cmdable
	registry *SchemaRegistry
}

// PublishOption allows configuring Redis XADD behaviour.
type PublishOption func(*redis.XAddArgs)

// WithMaxLenApprox trims the stream to roughly maxLen entries.
func WithMaxLenApprox(maxLen int64) PublishOption {
	return func(args *redis.XAddArgs) {
		if maxLen > 0 {
			args.MaxLen = maxLen
			args.Approx = true
		}
	}
}

func NewPublisher(client redis.Cmdable, registry *SchemaRegistry) *Publisher {
	return &Publisher{client: client, registry: registry}
}

// Publish validates the envelope and appends it to stream.
func (p *Publisher) Publish(ctx context.Context, stream string, envelope Envelope, opts ...PublishOption) (string, error) {
	if stream == "" {
		return "", fmt.Errorf("stream name is required")
	}
	if envelope.EventID == "" {
		envelope.EventID = uuid.NewString()
	}
	if envelope.OccurredAt.IsZero() {
		envelope.OccurredAt = time.Now().UTC()
	}
	if err := envelope.ValidateBasic(); err != nil {
		return "", err
	}
	if p.registry != nil {
		if err := p.registry.Validate(envelope.EventType, envelope.PayloadVersion, envelope.Data); err != nil {
			return "", err
		}
	}

	raw, err := envelope.Marshal()
	if err != nil {
		return "", err
	}
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			eventTypeField: envelope.EventType,
			requestIDField: envelope.RequestID,
			envelopeField:  raw,
		},
	}
	for _, opt := range opts {
		opt(args)
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		recordPublish(ctx, stream, envelope.EventType, false)
		return "", fmt.Errorf("xadd: %w", err)
	}
	recordPublish(ctx, stream, envelope.EventType, true)
	return id, nil
}

// PublishRaw marshals payload into a fresh envelope and publishes it.
func (p *Publisher) PublishRaw(ctx context.Context, stream string, env Envelope, payload interface{}, opts ...PublishOption) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	env.Data = data
	return p.Publish(ctx, stream, env, opts...)
}
