package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/pio-layer/internal/installer"
	"github.com/conn-castle/pio-layer/internal/messages"
)

// Exit codes for install and check.
const (
	exitInstallFailed = 1
	exitNeedsInstall  = 2
	exitLockedByOther = 3
)

func newInstallCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.InstallUse,
		Short: messages.InstallShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(flags.options(cmd))
			if err != nil {
				return err
			}
			defer func() {
				if shutdownErr := a.shutdown(); err == nil {
					err = shutdownErr
				}
			}()

			if err := a.orch.Activate(cmd.Context()); err != nil {
				return err
			}
			switch a.orch.Status().Outcome {
			case installer.OutcomeSatisfied.String(), installer.OutcomeInstalled.String():
				return nil
			case installer.OutcomeLockedByOther.String():
				return &SilentExitError{Code: exitLockedByOther}
			default:
				return &SilentExitError{Code: exitInstallFailed}
			}
		},
	}
}

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.CheckUse,
		Short: messages.CheckShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(flags.options(cmd))
			if err != nil {
				return err
			}
			defer func() {
				if shutdownErr := a.shutdown(); err == nil {
					err = shutdownErr
				}
			}()

			status, err := a.installer.Check(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.CheckResultFmt, status.Kind, status.Installed, status.Minimum)
			if !status.Satisfied() {
				return &SilentExitError{Code: exitNeedsInstall}
			}
			return nil
		},
	}
}
