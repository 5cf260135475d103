package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/internal/queue/streams"
	"github.com/mohammad-safakhou/researcher/internal/store"
	"github.com/mohammad-safakhou/researcher/provider"
	"github.com/mohammad-safakhou/researcher/session"
)

const (
	headerConversationID = "X-Conversation-Id"
	sessionTTL           = 6 * time.Hour
	defaultSourceHits    = 10
)

// SSE event names of the chat stream.
const (
	eventData       = "data"
	eventAnnotation = "annotation"
	eventText       = "text"
	eventError      = "error"
	eventDone       = "done"
)

// RunStore persists orchestration outcomes.
type RunStore interface {
	SaveRun(ctx context.Context, conversationID string, ann *core.Annotation) (store.Run, error)
	GetRun(ctx context.Context, id string) (store.Run, error)
	ListRunsByConversation(ctx context.Context, conversationID string, limit int) ([]store.Run, error)
}

// ResearchHandler serves research turns, stored runs and the per-conversation
// source index. Runs, Sessions, Publisher and Answerer are optional.
type ResearchHandler struct {
	Orch      *core.Orchestrator
	Answerer  provider.TextStreamer
	Runs      RunStore
	Sessions  session.Store
	Publisher *streams.Publisher

	Stream         string
	StreamMaxLen   int64
	PlanModel      string
	ChatModel      string
	RequestTimeout time.Duration
	Port           string
	Logger         *zap.Logger
}

// ChatRequest is the body of POST /api/chat and POST /api/research.
type ChatRequest struct {
	core.Request
	ConversationID string `json:"conversationId,omitempty"`
}

func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
	g.POST("/research", h.research)
	g.GET("/runs/:id", h.getRun)
	g.GET("/conversations/:id/runs", h.listRuns)
	g.GET("/conversations/:id/sources", h.searchSources)
}

func (h *ResearchHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *ResearchHandler) bind(c echo.Context) (ChatRequest, error) {
	var body ChatRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return body, echo.NewHTTPError(http.StatusBadRequest, "invalid json body")
	}
	if len(body.Messages) == 0 {
		return body, echo.NewHTTPError(http.StatusBadRequest, "messages required")
	}
	if body.ConversationID == "" {
		body.ConversationID = uuid.NewString()
	}
	return body, nil
}

func (h *ResearchHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.RequestTimeout > 0 {
		return context.WithTimeout(ctx, h.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// process runs the orchestrator and records the outcome. The returned run id is
// empty when nothing was persisted.
func (h *ResearchHandler) process(ctx context.Context, body ChatRequest, sink core.ProgressSink) (core.Result, string) {
	req := body.Request
	if req.Model == "" {
		req.Model = h.PlanModel
	}
	requestID := uuid.NewString()

	var progress *streams.ProgressSink
	if h.Publisher != nil && h.Stream != "" {
		progress = streams.NewProgressSink(h.Publisher, h.Stream, h.StreamMaxLen, requestID, body.ConversationID, h.logger())
		sink = core.MultiSink{sink, progress}
	}

	result := h.Orch.Process(ctx, req, sink)
	ann := result.ToolCallDataAnnotation
	if ann == nil {
		return result, ""
	}
	if progress != nil {
		progress.EmitAnnotation(ctx, ann)
	}

	var runID string
	if h.Runs != nil {
		run, err := h.Runs.SaveRun(ctx, body.ConversationID, ann)
		if err != nil {
			h.logger().Warn("save run", zap.String("conversation_id", body.ConversationID), zap.Error(err))
		} else {
			runID = run.ID
		}
	}

	if h.Sessions != nil {
		sess, err := h.Sessions.EnsureSession(body.ConversationID, sessionTTL)
		if err == nil {
			_, err = session.IndexAnnotation(sess, firstNonEmpty(runID, requestID), ann)
		}
		if err != nil {
			h.logger().Warn("index sources", zap.String("conversation_id", body.ConversationID), zap.Error(err))
		}
	}
	return result, runID
}

// research returns the orchestrator result without answering.
func (h *ResearchHandler) research(c echo.Context) error {
	body, err := h.bind(c)
	if err != nil {
		return err
	}
	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	result, runID := h.process(ctx, body, nil)
	c.Response().Header().Set(headerConversationID, body.ConversationID)
	if runID != "" {
		c.Response().Header().Set(echo.HeaderLocation, h.baseURL(c.Request())+"/api/runs/"+runID)
	}
	return c.JSON(http.StatusOK, result)
}

// chat streams progress, the annotation and the model answer as server-sent events.
func (h *ResearchHandler) chat(c echo.Context) error {
	body, err := h.bind(c)
	if err != nil {
		return err
	}
	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.Header().Set(headerConversationID, body.ConversationID)
	resp.WriteHeader(http.StatusOK)
	w := &sseWriter{resp: resp}

	result, runID := h.process(ctx, body, &sseSink{w: w, logger: h.logger()})
	if result.ToolCallDataAnnotation != nil {
		if err := w.send(eventAnnotation, result.ToolCallDataAnnotation); err != nil {
			return nil
		}
	}

	if h.Answerer != nil {
		messages := append(core.ProviderMessages(body.Messages), result.ToolCallMessages...)
		err := h.Answerer.StreamText(ctx, provider.TextRequest{
			Model:    firstNonEmpty(body.Model, h.ChatModel),
			Messages: messages,
		}, func(delta string) error {
			return w.send(eventText, map[string]string{"delta": delta})
		})
		if err != nil {
			h.logger().Warn("answer stream", zap.String("conversation_id", body.ConversationID), zap.Error(err))
			_ = w.send(eventError, map[string]string{"error": "answer generation failed"})
		}
	}

	_ = w.send(eventDone, map[string]string{
		"conversationId": body.ConversationID,
		"runId":          runID,
	})
	return nil
}

func (h *ResearchHandler) getRun(c echo.Context) error {
	if h.Runs == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run storage not configured")
	}
	run, err := h.Runs.GetRun(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

func (h *ResearchHandler) listRuns(c echo.Context) error {
	if h.Runs == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run storage not configured")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.Runs.ListRunsByConversation(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, runs)
}

func (h *ResearchHandler) searchSources(c echo.Context) error {
	if h.Sessions == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "source index not configured")
	}
	sess, err := h.Sessions.GetSession(c.Param("id"))
	if err != nil {
		return err
	}
	if sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusOK, sess.Sources())
	}
	k, _ := strconv.Atoi(c.QueryParam("k"))
	if k <= 0 {
		k = defaultSourceHits
	}
	hits, err := sess.Search(q, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("search: %v", err))
	}
	return c.JSON(http.StatusOK, hits)
}

func (h *ResearchHandler) baseURL(r *http.Request) string {
	header := r.Header.Clone()
	if r.Host != "" {
		header.Set("Host", r.Host)
	}
	return helpers.ResolveBaseURL(os.Getenv, header, h.Port)
}

// sseWriter serializes event writes onto one response.
type sseWriter struct {
	mu   sync.Mutex
	resp *echo.Response
}

func (w *sseWriter) send(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.resp, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.resp.Flush()
	return nil
}

// sseSink forwards progress events to the client as "data" events.
type sseSink struct {
	w      *sseWriter
	logger *zap.Logger
}

func (s *sseSink) Emit(_ context.Context, ev core.ProgressEvent) {
	if err := s.w.send(eventData, ev); err != nil {
		s.logger.Debug("client gone", zap.String("tool_call_id", ev.ToolCallID), zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
