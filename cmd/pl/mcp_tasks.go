package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conn-castle/pio-layer/internal/mcp"
	"github.com/conn-castle/pio-layer/internal/messages"
)

var runTaskServer = mcp.RunTaskServer

func newMcpTasksCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:    messages.McpTasksUse,
		Short:  messages.McpTasksShort,
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// stdout carries the MCP stream; everything human-readable goes to stderr.
			opts := flags.options(cmd)
			opts.interactive = false
			opts.stdout = opts.stderr
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer func() {
				if shutdownErr := a.shutdown(); err == nil {
					err = shutdownErr
				}
			}()

			if err := a.orch.Activate(ctx); err != nil {
				return ignoreCancel(err)
			}
			return ignoreCancel(serveTasks(ctx, a))
		},
	}
}

func serveTasks(ctx context.Context, a *app) error {
	return runTaskServer(ctx, Version, a.orch)
}
