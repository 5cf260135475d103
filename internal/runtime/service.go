package runtime

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *zap.Logger, service string) (context.Context, context.CancelFunc) {
	if service == "" {
		service = "service"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-ctx.Done():
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", zap.String("service", service), zap.String("signal", sig.String()))
			cancel()
		}
	}()
	return ctx, cancel
}
