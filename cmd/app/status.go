package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arumata/terrasup/internal/usecase"
)

func newStatusCmd(
	root *rootOptions,
	depsFactory func(*slog.Logger) *usecase.Dependencies,
	exitCode *int,
) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, launch descriptor and supervisor state",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logger := setupLogger(root.verbose)
			deps := depsFactory(logger)
			homeDir, err := os.UserHomeDir()
			if err != nil {
				handleCmdError(exitCode, fmt.Errorf("resolve home dir: %w", usecase.ErrCritical))
				return
			}
			opts := usecase.StatusOptions{
				HomeDir:   homeDir,
				Overrides: root.overrides,
			}
			report, err := usecase.Status(cmd.Context(), opts, deps, logger)
			if err != nil {
				handleCmdError(exitCode, err)
				return
			}
			if _, err := fmt.Fprint(cmd.OutOrStdout(), usecase.FormatStatus(report, shouldUseColor(os.Stdout))); err != nil {
				handleCmdError(exitCode, err)
				return
			}
			*exitCode = exitSuccess
		},
	}
}
