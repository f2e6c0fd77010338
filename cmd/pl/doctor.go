package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/conn-castle/pio-layer/internal/config"
	"github.com/conn-castle/pio-layer/internal/doctor"
	"github.com/conn-castle/pio-layer/internal/logging"
	"github.com/conn-castle/pio-layer/internal/messages"
)

func newDoctorCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.DoctorUse,
		Short: messages.DoctorShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			paths, err := resolvePaths(flags.options(cmd))
			if err != nil {
				return err
			}
			location := paths.Workspace
			if location == "" {
				location = paths.PIOHome
			}
			_, _ = fmt.Fprintf(out, messages.DoctorHealthCheckFmt, location)

			var allResults []doctor.Result
			allResults = append(allResults, doctor.CheckWorkspace(paths.Workspace))

			cfg := config.Default()
			if paths.ConfigPath != "" {
				var configResults []doctor.Result
				configResults, cfg = doctor.CheckConfig(paths.ConfigPath)
				allResults = append(allResults, configResults...)
			}

			store, err := newLockStore(paths, cfg)
			if err != nil {
				return err
			}
			allResults = append(allResults, doctor.CheckLock(store))

			manager, err := newInstaller(paths, cfg, store, uuid.NewString(), logging.Discard())
			if err != nil {
				return err
			}
			allResults = append(allResults, doctor.CheckToolchain(cmd.Context(), manager))

			for _, r := range allResults {
				printResult(out, r)
			}
			if doctor.HasFailure(allResults) {
				_, _ = fmt.Fprintln(out, color.RedString(messages.DoctorFailureSummary))
				return fmt.Errorf(messages.DoctorFailureError)
			}
			_, _ = fmt.Fprintln(out, color.GreenString(messages.DoctorSuccessSummary))
			return nil
		},
	}
}

func printResult(out io.Writer, r doctor.Result) {
	var status string
	switch r.Status {
	case doctor.StatusOK:
		status = color.GreenString(messages.DoctorStatusOKLabel)
	case doctor.StatusWarn:
		status = color.YellowString(messages.DoctorStatusWarnLabel)
	case doctor.StatusFail:
		status = color.RedString(messages.DoctorStatusFailLabel)
	}

	_, _ = fmt.Fprintf(out, messages.DoctorResultLineFmt, status, r.CheckName, r.Message)
	if r.Recommendation != "" {
		printRecommendation(out, r.Recommendation)
	}
}

// printRecommendation renders a multi-line recommendation with consistent indentation.
func printRecommendation(out io.Writer, recommendation string) {
	lines := strings.Split(recommendation, "\n")
	for i, line := range lines {
		if i == 0 {
			_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationPrefix, line)
			continue
		}
		if line == "" {
			_, _ = fmt.Fprintf(out, "%s\n", messages.DoctorRecommendationIndent)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s%s\n", messages.DoctorRecommendationIndent, line)
	}
}
