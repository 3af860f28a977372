package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arumata/terrasup/internal/usecase"
)

func newInitCmd(
	root *rootOptions,
	depsFactory func(*slog.Logger) *usecase.Dependencies,
	exitCode *int,
) *cobra.Command {
	var (
		executable string
		force      bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config and prepare the data directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logger := setupLogger(root.verbose)
			deps := depsFactory(logger)
			homeDir, err := os.UserHomeDir()
			if err != nil {
				handleCmdError(exitCode, fmt.Errorf("resolve home dir: %w", usecase.ErrCritical))
				return
			}
			if executable != "" && !filepath.IsAbs(executable) {
				abs, err := filepath.Abs(executable)
				if err != nil {
					handleCmdError(exitCode, fmt.Errorf("resolve executable path: %v: %w", err, usecase.ErrUsage))
					return
				}
				executable = abs
			}
			opts := usecase.InitOptions{
				DataDir:          root.overrides.DataDir,
				WorldName:        root.overrides.WorldName,
				LaunchDescriptor: root.overrides.LaunchDescriptor,
				Executable:       executable,
				Force:            force,
				DryRun:           dryRun,
				HomeDir:          homeDir,
			}
			handleCmdError(exitCode, usecase.Init(cmd.Context(), opts, deps, logger))
		},
	}

	cmd.Flags().StringVar(&executable, "executable", "",
		"server executable or launch script to record in the launch descriptor")
	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite existing config (with backup) and launch descriptor")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan changes without writing to disk")

	_ = cmd.RegisterFlagCompletionFunc("executable",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
	)

	return cmd
}
