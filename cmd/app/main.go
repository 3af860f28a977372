package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/spf13/cobra"

	"github.com/arumata/terrasup/internal/adapters/loghandler"
	"github.com/arumata/terrasup/internal/app"
	"github.com/arumata/terrasup/internal/usecase"
)

// redactedKeys never reach a log sink in clear text.
var redactedKeys = []string{"password"} //nolint:gochecknoglobals // logger setup constant

func main() {
	os.Exit(runMain())
}

func runMain() int {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGHUP,
	)
	defer stop()

	opts := &rootOptions{in: os.Stdin, out: os.Stdout}
	cmd, exitCode := newRootCmd(opts, app.NewDefaultDependencies, usecase.RunConsole)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsageError
	}
	return *exitCode
}

type rootOptions struct {
	verbose   bool
	overrides usecase.Overrides
	in        io.Reader
	out       io.Writer
}

type consoleFunc func(context.Context, usecase.ConsoleOptions, *usecase.Dependencies, *slog.Logger) error

func newRootCmd(
	opts *rootOptions,
	depsFactory func(*slog.Logger) *usecase.Dependencies,
	console consoleFunc,
) (*cobra.Command, *int) {
	exitCode := 0
	cmd := &cobra.Command{
		Use:   "terrasup",
		Short: "Run a Terraria dedicated server with an interactive console",
		Long: "Starts the dedicated server for the configured world, streams its output\n" +
			"and forwards typed lines to it as server commands. \"exit\" saves and stops\n" +
			"the server; Ctrl-C stops it too, killing it if it does not exit in time.",
		SilenceUsage:  false,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = runRootCommand(cmd.Context(), opts, depsFactory, console)
		},
	}
	cmd.SetErr(os.Stderr)

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.overrides.WorldName, "world", "", "world name (overrides server.world_name)")
	flags.StringVar(&opts.overrides.DataDir, "data-dir", "", "data directory (overrides server.data_dir)")
	flags.StringVar(&opts.overrides.LaunchDescriptor, "launch-descriptor", "",
		"file naming the server executable (overrides server.launch_descriptor)")
	_ = cmd.RegisterFlagCompletionFunc("data-dir",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
	)

	cmd.AddCommand(newInitCmd(opts, depsFactory, &exitCode))
	cmd.AddCommand(newStatusCmd(opts, depsFactory, &exitCode))
	cmd.AddCommand(newVersionCmd())

	return cmd, &exitCode
}

func runRootCommand(
	ctx context.Context,
	opts *rootOptions,
	depsFactory func(*slog.Logger) *usecase.Dependencies,
	console consoleFunc,
) int {
	logger := setupLogger(opts.verbose)
	deps := depsFactory(logger)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return mapExitCodeWithLog(fmt.Errorf("resolve home dir: %v: %w", err, usecase.ErrCritical))
	}
	configFile, err := loadConfigFile(ctx, deps, homeDir)
	if err != nil {
		return mapExitCodeWithLog(err)
	}
	runtime, err := usecase.RuntimeConfigFromFile(configFile, homeDir, opts.overrides)
	if err != nil {
		return mapExitCodeWithLog(err)
	}

	fileLogger, cleanup := withFileLogging(logger, configFile.Logging, homeDir, opts.verbose)
	defer cleanup()
	logger = fileLogger

	if f, ok := opts.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		logger.Info("Type server commands; \"exit\" saves and stops the server")
	}
	logger.Info("Starting terrasup", "world", runtime.Launch.WorldName, "data_dir", runtime.Launch.DataDir)

	consoleOpts := usecase.ConsoleOptions{Runtime: runtime, Input: opts.in, Output: opts.out}
	return mapExitCodeWithLog(console(ctx, consoleOpts, deps, logger))
}

func configPath(homeDir string) string {
	return usecase.ExpandHomeDirPublic(usecase.DefaultConfigPath, homeDir)
}

func loadConfigFile(ctx context.Context, deps *usecase.Dependencies, homeDir string) (usecase.ConfigFile, error) {
	if deps == nil || deps.Config == nil || deps.FileSystem == nil {
		return usecase.ConfigFile{}, fmt.Errorf("dependencies not available: %w", usecase.ErrCritical)
	}
	path := configPath(homeDir)
	info, err := deps.FileSystem.Stat(ctx, path)
	if err == nil && info.IsDir() {
		return usecase.ConfigFile{}, fmt.Errorf("config path %s is a directory: %w", path, usecase.ErrUsage)
	}
	if err != nil && !deps.FileSystem.IsNotExist(err) {
		return usecase.ConfigFile{}, fmt.Errorf("stat config: %v: %w", err, usecase.ErrCritical)
	}
	cfg, err := deps.Config.Load(ctx, path)
	if err != nil {
		return usecase.ConfigFile{}, fmt.Errorf("load config %s: %v: %w", path, err, usecase.ErrConfig)
	}
	return cfg, nil
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := loghandler.NewHandler(os.Stderr, &loghandler.Options{
		Level:    level,
		UseColor: shouldUseColor(os.Stderr),
		Redact:   redactedKeys,
	})
	return slog.New(handler)
}

// withFileLogging adds a daily log file under logCfg.Dir. Failures only
// cost the file: the terminal logger keeps working.
func withFileLogging(
	logger *slog.Logger,
	logCfg usecase.LoggingConfig,
	homeDir string,
	verbose bool,
) (*slog.Logger, func()) {
	dir := strings.TrimSpace(logCfg.Dir)
	if dir == "" {
		return logger, func() {}
	}
	expanded := usecase.ExpandHomeDirPublic(dir, homeDir)
	if err := os.MkdirAll(expanded, 0o750); err != nil {
		logger.Warn("Cannot create log directory", "path", expanded, "error", err)
		return logger, func() {}
	}
	logPath := filepath.Join(expanded, "terrasup-"+time.Now().Format("2006-01-02")+".log")

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path from config
	if err != nil {
		logger.Warn("Cannot open log file", "path", logPath, "error", err)
		return logger, func() {}
	}

	fileLevel := parseLogLevel(logCfg.Level)
	if verbose && fileLevel > slog.LevelDebug {
		fileLevel = slog.LevelDebug
	}
	fileHandler := loghandler.NewHandler(f, &loghandler.Options{
		Level:      fileLevel,
		TimeLayout: loghandler.DateTimeLayout,
		Redact:     redactedKeys,
	})

	combined := loghandler.NewMultiHandler(logger.Handler(), fileHandler)
	return slog.New(combined), func() { _ = f.Close() }
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func shouldUseColor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
