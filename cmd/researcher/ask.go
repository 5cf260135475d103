package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"github.com/mohammad-safakhou/researcher/internal/runtime"
	srv "github.com/mohammad-safakhou/researcher/internal/server"
	"github.com/mohammad-safakhou/researcher/provider"
)

func askCMD(cfgPath *string) *cobra.Command {
	var model string
	var noSearch bool
	var showAnnotation bool
	var language string

	var ask = &cobra.Command{
		Use:   "ask [question]",
		Short: "Research a question from the terminal and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := runtime.SignalContext(cmd.Context(), logger, "ask")
			defer cancel()
			if cfg.Server.RequestTimeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, cfg.Server.RequestTimeout)
				defer cancel()
			}

			p, err := srv.BuildPipeline(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()
			h := p.Handler

			messages := []core.Message{{Role: provider.RoleUser, Content: strings.Join(args, " ")}}
			out := cmd.OutOrStdout()
			sink := &printSink{w: cmd.ErrOrStderr()}
			result := h.Orch.Process(ctx, core.Request{
				Messages:   messages,
				Model:      firstNonEmpty(model, cfg.LLM.Routing.Planning),
				SearchMode: !noSearch,
				Language:   language,
			}, sink)

			if showAnnotation && result.ToolCallDataAnnotation != nil {
				raw, err := json.MarshalIndent(result.ToolCallDataAnnotation, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n\n", raw)
			}

			if h.Answerer == nil {
				for _, m := range result.ToolCallMessages {
					if m.Role == provider.RoleAssistant {
						fmt.Fprintln(out, m.Content)
					}
				}
				return nil
			}
			err = h.Answerer.StreamText(ctx, provider.TextRequest{
				Model:    firstNonEmpty(model, cfg.LLM.Routing.Chatting),
				Messages: append(core.ProviderMessages(messages), result.ToolCallMessages...),
			}, func(delta string) error {
				_, err := io.WriteString(out, delta)
				return err
			})
			fmt.Fprintln(out)
			return err
		},
	}
	ask.Flags().StringVar(&model, "model", "", "model identifier (defaults to llm.routing)")
	ask.Flags().BoolVar(&noSearch, "no-search", false, "answer without running research tools")
	ask.Flags().StringVar(&language, "lang", "", "answer language such as es or pt-BR (detected when empty)")
	ask.Flags().BoolVar(&showAnnotation, "annotation", false, "print the research annotation before the answer")
	return ask
}

// printSink writes one line per progress event.
type printSink struct {
	w io.Writer
}

func (s *printSink) Emit(_ context.Context, ev core.ProgressEvent) {
	switch {
	case ev.State == core.ProgressCall:
		fmt.Fprintf(s.w, "→ %s %s\n", ev.ToolName, ev.Description)
	case ev.Error != "":
		fmt.Fprintf(s.w, "✗ %s: %s\n", ev.ToolName, ev.Error)
	default:
		fmt.Fprintf(s.w, "✓ %s\n", ev.ToolName)
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
