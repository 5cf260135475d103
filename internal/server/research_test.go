package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"github.com/mohammad-safakhou/researcher/internal/planner"
	"github.com/mohammad-safakhou/researcher/internal/store"
	"github.com/mohammad-safakhou/researcher/provider"
	"github.com/mohammad-safakhou/researcher/session/inmemory"
	"github.com/mohammad-safakhou/researcher/session/session_models"
)

type stubPlanner struct {
	plan planner.ToolPlan
	err  error
}

func (s stubPlanner) BuildPlan(context.Context, []core.Message, string) (planner.ToolPlan, error) {
	return s.plan, s.err
}

type stubTools struct{}

func (stubTools) Search(_ context.Context, p core.SearchParams) (core.SearchResult, error) {
	return core.SearchResult{Results: []core.SearchItem{
		{Title: "Alpha release notes", URL: "https://a.example/1", Content: "Alpha ships generics improvements"},
		{Title: "Beta", URL: "https://b.example/2", Content: "Beta coverage"},
	}}, nil
}

func (stubTools) Retrieve(context.Context, core.RetrieveParams) (core.RetrieveResult, error) {
	return core.RetrieveResult{}, errors.New("offline")
}

func (stubTools) VideoSearch(context.Context, core.VideoSearchParams) (core.VideoResult, error) {
	return core.VideoResult{}, errors.New("offline")
}

type stubAnswerer struct {
	deltas   []string
	err      error
	messages []provider.Message
	model    string
}

func (s *stubAnswerer) StreamText(_ context.Context, req provider.TextRequest, onDelta func(string) error) error {
	s.messages = req.Messages
	s.model = req.Model
	for _, d := range s.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return s.err
}

func newTestHandler() *ResearchHandler {
	plan := planner.ToolPlan{
		Plan: []planner.PlanStep{{Step: "Search", Detail: "Find coverage"}},
		ToolInvocations: []planner.ToolInvocation{
			{ID: "web", Tool: planner.ToolSearch, Description: "Search the web", Parameters: map[string]any{"query": "go release"}},
		},
	}
	return &ResearchHandler{
		Orch:      core.NewOrchestrator(stubPlanner{plan: plan}, stubTools{}, zap.NewNop()),
		Sessions:  inmemory.NewInMemorySessionStore(),
		ChatModel: "chat-model",
		Logger:    zap.NewNop(),
	}
}

func newTestEcho(t *testing.T, cfg *config.Config, h *ResearchHandler) *echo.Echo {
	t.Helper()
	e, err := NewEcho(cfg, h, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEcho: %v", err)
	}
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const researchBody = `{"messages":[{"role":"user","content":"What is new in Go?"}],"searchMode":true,"conversationId":"conv-1"}`

func TestResearchReturnsResultAndIndexesSources(t *testing.T) {
	h := newTestHandler()
	e := newTestEcho(t, nil, h)

	rec := do(e, http.MethodPost, "/api/research", researchBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(headerConversationID); got != "conv-1" {
		t.Fatalf("conversation header = %q", got)
	}
	if rec.Header().Get(echo.HeaderLocation) != "" {
		t.Fatalf("Location must be empty without run storage")
	}

	var result struct {
		Annotation json.RawMessage    `json:"toolCallDataAnnotation"`
		Messages   []provider.Message `json:"toolCallMessages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(string(result.Annotation), `"marker":"[2]"`) {
		t.Fatalf("annotation missing sources: %s", result.Annotation)
	}
	if len(result.Messages) != 3 {
		t.Fatalf("expected 3 tool call messages, got %d", len(result.Messages))
	}
	if !strings.Contains(result.Messages[2].Content, "[1], [2]") {
		t.Fatalf("final instruction missing markers: %q", result.Messages[2].Content)
	}

	rec = do(e, http.MethodGet, "/api/conversations/conv-1/sources?q=generics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sources status = %d", rec.Code)
	}
	var hits []session_models.SearchHit
	if err := json.Unmarshal(rec.Body.Bytes(), &hits); err != nil {
		t.Fatalf("unmarshal hits: %v", err)
	}
	if len(hits) == 0 || hits[0].Marker != "[1]" {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	rec = do(e, http.MethodGet, "/api/conversations/conv-1/sources", "")
	var docs []session_models.SourceDoc
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil || len(docs) != 2 {
		t.Fatalf("sources listing = %s (%v)", rec.Body.String(), err)
	}

	if rec := do(e, http.MethodGet, "/api/conversations/unknown/sources?q=x", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown conversation status = %d", rec.Code)
	}
}

func TestResearchDisabledSearchMode(t *testing.T) {
	e := newTestEcho(t, nil, newTestHandler())
	rec := do(e, http.MethodPost, "/api/research", `{"messages":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"toolCallDataAnnotation":null,"toolCallMessages":[]}` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if rec.Header().Get(headerConversationID) == "" {
		t.Fatalf("conversation id should be generated")
	}
}

func TestResearchRejectsBadBodies(t *testing.T) {
	e := newTestEcho(t, nil, newTestHandler())
	for _, body := range []string{`{`, `{"messages":[]}`, `{"messages":[{"role":"user","content":{"a":1}}]}`} {
		rec := do(e, http.MethodPost, "/api/research", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Fatalf("error payload missing: %s", rec.Body.String())
		}
	}
}

func TestChatStreamsEventsInOrder(t *testing.T) {
	h := newTestHandler()
	answer := &stubAnswerer{deltas: []string{"Hello", " world"}}
	h.Answerer = answer
	e := newTestEcho(t, nil, h)

	rec := do(e, http.MethodPost, "/api/chat", researchBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var events []string
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}
	want := []string{eventData, eventData, eventAnnotation, eventText, eventText, eventDone}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", events, want)
	}
	if !strings.Contains(rec.Body.String(), `data: {"delta":" world"}`) {
		t.Fatalf("missing text delta in %s", rec.Body.String())
	}

	if len(answer.messages) != 4 {
		t.Fatalf("answerer got %d messages, want user turn plus 3 tool messages", len(answer.messages))
	}
	if answer.messages[3].Role != provider.RoleSystem {
		t.Fatalf("last message role = %s", answer.messages[3].Role)
	}
	if answer.model != "chat-model" {
		t.Fatalf("model = %q", answer.model)
	}
}

func TestChatReportsAnswerFailure(t *testing.T) {
	h := newTestHandler()
	h.Answerer = &stubAnswerer{err: errors.New("rate limited")}
	e := newTestEcho(t, nil, h)

	rec := do(e, http.MethodPost, "/api/chat", researchBody)
	body := rec.Body.String()
	if !strings.Contains(body, "event: error") || !strings.Contains(body, "event: done") {
		t.Fatalf("expected error then done events, got %s", body)
	}
	if strings.Contains(body, "rate limited") {
		t.Fatalf("provider error must not leak to clients")
	}
}

func TestRunsEndpoints(t *testing.T) {
	h := newTestHandler()
	e := newTestEcho(t, nil, h)
	if rec := do(e, http.MethodGet, "/api/runs/abc", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("without storage status = %d", rec.Code)
	}

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	h.Runs = &store.Store{DB: db}

	id := "0b6f2a4e-2c1d-4d7e-8a5b-9c3e1f0a7b21"
	cols := []string{"id", "conversation_id", "language", "fallback", "annotation", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM research_runs\nWHERE id=$1")).WithArgs(id).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(id, "conv-1", "en", false, []byte(`{"type":"tool-plan"}`), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE conversation_id=$1")).WithArgs("conv-1", 5).
		WillReturnRows(sqlmock.NewRows(cols))

	rec := do(e, http.MethodGet, "/api/runs/"+id, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"annotation":{"type":"tool-plan"}`) {
		t.Fatalf("get run = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(e, http.MethodGet, "/api/runs/not-a-uuid", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing run status = %d", rec.Code)
	}
	rec = do(e, http.MethodGet, "/api/conversations/conv-1/runs?limit=5", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("list runs = %d %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestResearchSetsLocationWhenPersisted(t *testing.T) {
	h := newTestHandler()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	h.Runs = &store.Store{DB: db}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO research_runs")).
		WithArgs(sqlmock.AnyArg(), "conv-1", "en", false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	t.Setenv("RESEARCHER_BASE_URL", "https://research.example")

	rec := do(newTestEcho(t, nil, h), http.MethodPost, "/api/research", researchBody)
	loc := rec.Header().Get(echo.HeaderLocation)
	if !strings.HasPrefix(loc, "https://research.example/api/runs/") {
		t.Fatalf("Location = %q", loc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAuthEnabledRequiresToken(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{AuthEnabled: true, JWTSecret: "s3cret"}}
	e := newTestEcho(t, cfg, newTestHandler())
	if rec := do(e, http.MethodPost, "/api/research", researchBody); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	if _, err := NewEcho(&config.Config{Server: config.ServerConfig{AuthEnabled: true}}, newTestHandler(), nil, nil); err == nil {
		t.Fatalf("expected error when auth is enabled without a secret")
	}
}
