package main

import (
	"github.com/spf13/cobra"

	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/orchestrator"
	"github.com/conn-castle/pio-layer/internal/terminal"
)

var isTerminal = terminal.IsInteractive

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	workspace string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolP("version", "v", false, messages.RootVersionFlag)
	cmd.PersistentFlags().StringVarP(&flags.workspace, "workspace", "w", "", messages.RootWorkspaceFlag)
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, messages.RootVerboseFlag)

	cmd.AddCommand(
		newSessionCmd(flags),
		newInstallCmd(flags),
		newCheckCmd(flags),
		newLockCmd(flags),
		newDoctorCmd(flags),
		newMcpTasksCmd(flags),
	)
	for _, action := range orchestrator.Actions() {
		if action.IsTask() {
			cmd.AddCommand(newTaskCmd(flags, action))
		}
	}
	return cmd
}

// options builds appOptions for cmd's streams.
func (f *rootFlags) options(cmd *cobra.Command) appOptions {
	return appOptions{
		workspace:   f.workspace,
		verbose:     f.verbose,
		interactive: isTerminal(),
		stdin:       cmd.InOrStdin(),
		stdout:      cmd.OutOrStdout(),
		stderr:      cmd.ErrOrStderr(),
	}
}
