package streams_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"github.com/mohammad-safakhou/researcher/internal/planner"
	"github.com/mohammad-safakhou/researcher/internal/queue/streams"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startRedis(t *testing.T, ctx context.Context) *redis.Client {
	t.Helper()
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestProgressSinkPublishesInOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := startRedis(t, ctx)
	reg := streams.NewSchemaRegistry()
	if err := streams.RegisterBaseSchemas(reg); err != nil {
		t.Fatalf("register schemas: %v", err)
	}

	const stream = "research.progress.test"
	if err := streams.EnsureGroup(ctx, client, stream, "tail", "0"); err != nil {
		t.Fatalf("ensure group: %v", err)
	}

	sink := streams.NewProgressSink(streams.NewPublisher(client, reg), stream, 100, "req-1", "conv-1", zap.NewNop())
	sink.Emit(ctx, core.ProgressEvent{State: core.ProgressCall, ToolCallID: "c1", ToolName: planner.ToolSearch, Args: json.RawMessage(`{"query":"go"}`)})
	sink.Emit(ctx, core.ProgressEvent{State: core.ProgressResult, ToolCallID: "c1", ToolName: planner.ToolSearch, Result: json.RawMessage(`{"results":[]}`)})
	// Rejected by the result schema; the sink logs and moves on.
	sink.Emit(ctx, core.ProgressEvent{State: core.ProgressResult, ToolCallID: "", ToolName: planner.ToolSearch})
	sink.EmitAnnotation(ctx, &core.Annotation{
		Type:          core.AnnotationToolPlan,
		Language:      "en",
		ExecutedSteps: []core.ExecutedStep{},
		Sources:       []core.SourceReference{},
	})

	consumer := streams.NewConsumer(client, reg, "tail", "t1")
	msgs, err := consumer.Read(ctx, stream, streams.WithCount(10), streams.WithBlock(time.Second))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	wantTypes := []string{streams.EventToolCall, streams.EventToolResult, streams.EventAnnotation}
	for i, m := range msgs {
		if m.Envelope.EventType != wantTypes[i] {
			t.Fatalf("message %d type = %s, want %s", i, m.Envelope.EventType, wantTypes[i])
		}
		if m.Envelope.RequestID != "req-1" || m.Envelope.ConversationID != "conv-1" {
			t.Fatalf("message %d envelope ids = %+v", i, m.Envelope)
		}
	}
	if msgs[0].Envelope.Sequence >= msgs[1].Envelope.Sequence || msgs[1].Envelope.Sequence >= msgs[2].Envelope.Sequence {
		t.Fatalf("sequence not increasing: %d %d %d", msgs[0].Envelope.Sequence, msgs[1].Envelope.Sequence, msgs[2].Envelope.Sequence)
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	if err := consumer.Ack(ctx, stream, ids...); err != nil {
		t.Fatalf("ack: %v", err)
	}
}
