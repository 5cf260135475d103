package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/researcher/internal/queue/streams"
	"github.com/mohammad-safakhou/researcher/internal/runtime"
)

func progressCMD(cfgPath *string) *cobra.Command {
	var group string
	var fromStart bool

	var progress = &cobra.Command{
		Use:   "progress",
		Short: "Tail research progress events from the Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			ctx, cancel := runtime.SignalContext(cmd.Context(), logger, "progress")
			defer cancel()

			rdb, err := runtime.OpenRedis(ctx, cfg.Storage.Redis)
			if err != nil {
				return err
			}
			if rdb == nil {
				return fmt.Errorf("redis is not configured (storage.redis.host)")
			}
			defer func() { _ = rdb.Close() }()

			reg := streams.NewSchemaRegistry()
			if err := streams.RegisterBaseSchemas(reg); err != nil {
				return err
			}
			start := "$"
			if fromStart {
				start = "0"
			}
			stream := cfg.Progress.Stream
			if err := streams.EnsureGroup(ctx, rdb, stream, group, start); err != nil {
				return err
			}

			consumer := streams.NewConsumer(rdb, reg, group, "tail-"+uuid.NewString()[:8])
			out := cmd.OutOrStdout()
			for ctx.Err() == nil {
				msgs, err := consumer.Read(ctx, stream, streams.WithBlock(5*time.Second), streams.WithCount(50))
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				ids := make([]string, 0, len(msgs))
				for _, m := range msgs {
					env := m.Envelope
					fmt.Fprintf(out, "%s %s #%d %s %s\n",
						env.OccurredAt.Format(time.RFC3339), env.RequestID, env.Sequence, env.EventType, env.Data)
					ids = append(ids, m.ID)
				}
				if err := consumer.Ack(ctx, stream, ids...); err != nil {
					return err
				}
			}
			return nil
		},
	}
	progress.Flags().StringVar(&group, "group", "researcher-tail", "consumer group name")
	progress.Flags().BoolVar(&fromStart, "from-start", false, "replay the stream from the beginning")
	return progress
}
