package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"github.com/mohammad-safakhou/researcher/internal/queue/streams"
	"github.com/mohammad-safakhou/researcher/internal/runtime"
	"github.com/mohammad-safakhou/researcher/session/inmemory"
	"github.com/mohammad-safakhou/researcher/tools"
)

const serviceName = "researcher"

// Pipeline holds the long-lived dependencies shared by the HTTP server and the CLI.
type Pipeline struct {
	Handler   *ResearchHandler
	Telemetry *runtime.Telemetry
	closers   []func() error
}

// Close releases connections opened by BuildPipeline.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildPipeline wires config into a ready research handler. Redis, Postgres and
// the LLM provider are optional; missing pieces degrade the pipeline instead of
// failing startup.
func BuildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{}

	tel, err := runtime.SetupTelemetry(ctx, cfg.Telemetry, runtime.TelemetryOptions{ServiceName: serviceName, ServiceVersion: "v1"})
	if err != nil {
		return nil, err
	}
	p.Telemetry = tel
	p.closers = append(p.closers, func() error { return tel.Shutdown(context.Background()) })

	h := &ResearchHandler{
		Sessions:       inmemory.NewInMemorySessionStore(),
		PlanModel:      cfg.LLM.Routing.Planning,
		ChatModel:      cfg.LLM.Routing.Chatting,
		RequestTimeout: cfg.Server.RequestTimeout,
		Port:           cfg.Server.Port,
		Logger:         logger.Named("http"),
	}

	var planBuilder core.PlanBuilder
	llm, err := core.NewLLMProvider(cfg.LLM)
	switch {
	case errors.Is(err, core.ErrNoProvider):
		logger.Warn("no llm provider configured; research runs use the fallback search only")
	case err != nil:
		return nil, err
	default:
		planBuilder = core.NewPlanner(llm, logger)
		h.Answerer = llm
	}

	toolset, err := tools.New(cfg.Tools, logger)
	if err != nil {
		return nil, fmt.Errorf("tools: %w", err)
	}
	h.Orch = core.NewOrchestrator(planBuilder, toolset, logger)

	rdb, err := runtime.OpenRedis(ctx, cfg.Storage.Redis)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	if rdb != nil {
		p.closers = append(p.closers, rdb.Close)
		reg := streams.NewSchemaRegistry()
		if err := streams.RegisterBaseSchemas(reg); err != nil {
			_ = p.Close()
			return nil, err
		}
		h.Publisher = streams.NewPublisher(rdb, reg)
		h.Stream = cfg.Progress.Stream
		h.StreamMaxLen = cfg.Progress.MaxLen
	}

	st, err := runtime.OpenStore(ctx, cfg.Storage.Postgres)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	if st != nil {
		p.closers = append(p.closers, st.Close)
		h.Runs = st
	}

	p.Handler = h
	return p, nil
}

// NewEcho builds the HTTP surface around a research handler.
func NewEcho(cfg *config.Config, h *ResearchHandler, metrics http.Handler, logger *zap.Logger) (*echo.Echo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpLogger := logger.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		fields := []zap.Field{
			zap.Int("status", code),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("remote", c.RealIP()),
			zap.Error(err),
		}
		if code >= http.StatusInternalServerError {
			httpLogger.Error("request failed", fields...)
			msg = http.StatusText(code)
		} else {
			httpLogger.Debug("request rejected", fields...)
		}
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "Cookie"},
		ExposeHeaders:    []string{echo.HeaderLocation, headerConversationID},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}

	api := e.Group("/api")
	if cfg != nil && cfg.Server.AuthEnabled {
		secret, err := runtime.LoadJWTSecret(cfg.Server)
		if err != nil {
			return nil, err
		}
		api.Use(runtime.EchoAuthMiddleware(secret))
	}
	h.Register(api)
	return e, nil
}

// Run serves the research API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := BuildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	e, err := NewEcho(cfg, p.Handler, p.Telemetry.MetricsHandler(), logger)
	if err != nil {
		return err
	}

	addr := cfg.Server.Address
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
