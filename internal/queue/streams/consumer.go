package streams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consumer reads progress envelopes from a stream through a consumer group.
type Consumer struct {
	client   redis.Cmdable
	registry *SchemaRegistry
	group    string
	name     string
}

// ConsumerOption configures consumer behaviour on read.
type ConsumerOption func(*redis.XReadGroupArgs)

// WithBlock sets the maximum blocking duration when reading.
func WithBlock(d time.Duration) ConsumerOption {
	return func(args *redis.XReadGroupArgs) {
		if d > 0 {
			args.Block = d
		}
	}
}

// WithCount caps the number of messages returned in a single read.
func WithCount(n int64) ConsumerOption {
	return func(args *redis.XReadGroupArgs) {
		if n > 0 {
			args.Count = n
		}
	}
}

func NewConsumer(client redis.Cmdable, registry *SchemaRegistry, group, name string) *Consumer {
	return &Consumer{client: client, registry: registry, group: group, name: name}
}

// EnsureGroup creates the consumer group (and the stream) if missing. start is
// "$" for new entries only or "0" to replay the whole stream.
func EnsureGroup(ctx context.Context, client redis.Cmdable, stream, group, start string) error {
	if stream == "" || group == "" {
		return fmt.Errorf("stream and group must be provided")
	}
	if start == "" {
		start = "$"
	}
	if err := client.XGroupCreateMkStream(ctx, stream, group, start).Err(); err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("xgroup create: %w", err)
	}
	return nil
}

// Message is one decoded stream entry.
type Message struct {
	ID       string
	Envelope Envelope
}

// Read pulls new messages for this consumer. Entries that fail to decode or
// validate are acknowledged and dropped from the result.
func (c *Consumer) Read(ctx context.Context, stream string, opts ...ConsumerOption) ([]Message, error) {
	if stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if c.group == "" || c.name == "" {
		return nil, fmt.Errorf("consumer group and name must be configured")
	}

	args := &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{stream, ">"},
	}
	for _, opt := range opts {
		opt(args)
	}

	streams, err := c.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var out []Message
	var rejected []string
	for _, st := range streams {
		for _, msg := range st.Messages {
			env, err := c.decode(msg)
			if err != nil {
				rejected = append(rejected, msg.ID)
				continue
			}
			out = append(out, Message{ID: msg.ID, Envelope: env})
		}
	}
	if err := c.Ack(ctx, stream, rejected...); err != nil {
		return out, err
	}
	return out, nil
}

// Ack acknowledges processing of the provided message IDs.
func (c *Consumer) Ack(ctx context.Context, stream string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, c.group, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *Consumer) decode(msg redis.XMessage) (Envelope, error) {
	var data []byte
	switch v := msg.Values[envelopeField].(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case nil:
		return Envelope{}, fmt.Errorf("entry %s has no %s field", msg.ID, envelopeField)
	default:
		return Envelope{}, fmt.Errorf("entry %s: unexpected %T envelope", msg.ID, v)
	}

	env, err := UnmarshalEnvelope(data)
	if err != nil {
		return Envelope{}, err
	}
	if c.registry != nil {
		if err := c.registry.Validate(env.EventType, env.PayloadVersion, env.Data); err != nil {
			return Envelope{}, err
		}
	}
	return env, nil
}
