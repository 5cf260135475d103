package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/researcher/internal/agent/core"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

type Store struct {
	DB *sql.DB
}

// Run is one persisted orchestration outcome.
type Run struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId,omitempty"`
	Language       string          `json:"language"`
	Fallback       bool            `json:"fallback"`
	Annotation     json.RawMessage `json:"annotation"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewWithDSN opens and pings a Postgres connection.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// SaveRun persists the annotation of one orchestration and returns the new run.
func (s *Store) SaveRun(ctx context.Context, conversationID string, ann *core.Annotation) (Run, error) {
	if ann == nil {
		return Run{}, fmt.Errorf("annotation is required")
	}
	payload, err := json.Marshal(ann)
	if err != nil {
		return Run{}, fmt.Errorf("encode annotation: %w", err)
	}
	run := Run{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Language:       string(ann.Language),
		Fallback:       ann.Type == core.AnnotationToolFallback,
		Annotation:     payload,
	}
	err = s.DB.QueryRowContext(ctx, `
INSERT INTO research_runs (id, conversation_id, language, fallback, annotation, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())
RETURNING created_at`,
		run.ID, nullString(conversationID), run.Language, run.Fallback, payload,
	).Scan(&run.CreatedAt)
	recordStoreOp(ctx, "save_run", err)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// GetRun loads one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Run{}, ErrNotFound
	}
	row := s.DB.QueryRowContext(ctx, `
SELECT id, conversation_id, language, fallback, annotation, created_at
FROM research_runs
WHERE id=$1`, id)
	run, err := scanRun(row)
	recordStoreOp(ctx, "get_run", err)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRunsByConversation returns the newest runs of a conversation first.
func (s *Store) ListRunsByConversation(ctx context.Context, conversationID string, limit int) ([]Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, conversation_id, language, fallback, annotation, created_at
FROM research_runs
WHERE conversation_id=$1
ORDER BY created_at DESC
LIMIT $2`, conversationID, limit)
	recordStoreOp(ctx, "list_runs", err)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run    Run
		convID sql.NullString
		ann    []byte
	)
	if err := row.Scan(&run.ID, &convID, &run.Language, &run.Fallback, &ann, &run.CreatedAt); err != nil {
		return Run{}, err
	}
	run.ConversationID = convID.String
	run.Annotation = json.RawMessage(ann)
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var (
	storeMetricsOnce sync.Once
	storeOps         otelmetric.Int64Counter
)

func initStoreMetrics() {
	meter := otel.Meter("researcher/internal/store")
	var err error
	storeOps, err = meter.Int64Counter(
		"researcher_store_operations_total",
		otelmetric.WithDescription("Run store operations by outcome"),
	)
	if err != nil {
		zap.L().Warn("store metrics init", zap.Error(err))
	}
}

func recordStoreOp(ctx context.Context, op string, err error) {
	storeMetricsOnce.Do(initStoreMetrics)
	if storeOps == nil {
		return
	}
	status := "ok"
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		status = "error"
	}
	storeOps.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	))
}
