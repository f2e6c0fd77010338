package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conn-castle/pio-layer/internal/config"
	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/orchestrator"
	"github.com/conn-castle/pio-layer/internal/session"
)

func newSessionCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.SessionUse,
		Short: messages.SessionShort,
		Long:  messages.SessionLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := flags.options(cmd)
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			return runSession(ctx, a, opts)
		},
	}
}

// runSession activates, serves actions from the picker, and always shuts down.
func runSession(ctx context.Context, a *app, opts appOptions) (err error) {
	defer func() {
		err = errors.Join(err, a.shutdown())
	}()

	workspace := a.paths.Workspace
	if workspace == "" {
		workspace = "-"
	}
	_, _ = fmt.Fprintf(opts.stdout, messages.SessionStartedFmt, a.sessionID, workspace)

	if a.paths.ConfigPath != "" {
		watchErr := a.live.Watch(ctx, func(config.Config) {
			_, _ = fmt.Fprintf(opts.stdout, messages.SessionConfigReloadedFmt, a.paths.ConfigPath)
		})
		if watchErr != nil {
			a.logger.Warn("config watch unavailable", "error", watchErr)
		}
	}

	if activateErr := a.orch.Activate(ctx); activateErr != nil {
		return ignoreCancel(activateErr)
	}

	var picker session.Picker
	if opts.interactive {
		picker = session.NewHuhPicker(orchestrator.Actions())
	} else {
		picker = session.NewLinePicker(opts.stdin)
	}
	loopErr := session.Loop(ctx, picker, a.orch, func(action orchestrator.Action, err error) {
		label := string(action)
		if label == "" {
			label = messages.SessionInvalidInput
		}
		a.logger.Warn("action failed", "action", label, "error", err)
		a.notifier.Error(fmt.Sprintf(messages.SessionActionFailedFmt, label, err), false)
	})
	return ignoreCancel(loopErr)
}

// ignoreCancel treats an interrupted session as a clean exit.
func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
