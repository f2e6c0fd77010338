package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/orchestrator"
)

// newTaskCmd runs one task action in a fresh session. A monitor keeps the
// command alive until interrupted.
func newTaskCmd(flags *rootFlags, action orchestrator.Action) *cobra.Command {
	return &cobra.Command{
		Use:   string(action),
		Short: fmt.Sprintf(messages.TaskShortFmt, action),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(flags.options(cmd))
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
			if err := a.orch.Run(ctx, action); err != nil {
				return err
			}
			if a.gate.IsMonitorActive() {
				a.notifier.Info(messages.TaskMonitorWaiting)
				return ignoreCancel(a.tasks.WaitActive(ctx))
			}
			return nil
		},
	}
}
