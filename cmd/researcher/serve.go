package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/researcher/internal/runtime"
	srv "github.com/mohammad-safakhou/researcher/internal/server"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if serveAddr != "" {
				cfg.Server.Address = serveAddr
			}

			ctx, cancel := runtime.SignalContext(context.Background(), logger, "serve")
			defer cancel()
			return srv.Run(ctx, cfg, logger)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	return serve
}
