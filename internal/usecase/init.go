package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const initBackupTimeFormat = "20060102-150405"

//nolint:gochecknoglobals // overridden in tests for deterministic backups.
var initNow = time.Now

// InitOptions describes init behavior.
type InitOptions struct {
	DataDir          string
	WorldName        string
	LaunchDescriptor string
	// Executable, when set, is written into the launch descriptor.
	Executable string
	Force      bool
	DryRun     bool
	HomeDir    string
}

// Init writes the default configuration and prepares the data directory.
func Init(ctx context.Context, opts InitOptions, deps *Dependencies, logger *slog.Logger) error {
	if logger == nil {
		panic("logger is required")
	}
	if ctx.Err() != nil {
		return ErrInterrupted
	}
	if err := validateInitDependencies(deps); err != nil {
		return err
	}
	homeDir := strings.TrimSpace(opts.HomeDir)
	if homeDir == "" {
		return fmt.Errorf("home directory is empty: %w", ErrCritical)
	}

	cfg := DefaultConfigFile()
	applyOverride(&cfg.Server.DataDir, opts.DataDir)
	applyOverride(&cfg.Server.WorldName, opts.WorldName)
	applyOverride(&cfg.Server.LaunchDescriptor, opts.LaunchDescriptor)
	runtime, err := RuntimeConfigFromFile(cfg, homeDir, Overrides{})
	if err != nil {
		return err
	}

	paths := buildInitPaths(deps.FileSystem, homeDir)
	if err := ensureConfig(ctx, opts, deps, paths, cfg); err != nil {
		return err
	}
	if err := ensureInitDirs(ctx, deps, runtime.Launch, opts.DryRun); err != nil {
		return err
	}
	if err := writeLaunchDescriptor(ctx, deps, runtime.Launch.DescriptorPath, opts, logger); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Init completed", "config", paths.configPath, "data_dir", runtime.Launch.DataDir)
	return nil
}

type initPaths struct {
	configDir  string
	configPath string
}

func validateInitDependencies(deps *Dependencies) error {
	if deps == nil {
		return fmt.Errorf("dependencies are required: %w", ErrCritical)
	}
	if deps.FileSystem == nil {
		return fmt.Errorf("filesystem adapter not available: %w", ErrCritical)
	}
	if deps.Config == nil {
		return fmt.Errorf("config adapter not available: %w", ErrCritical)
	}
	return nil
}

func buildInitPaths(fs FileSystemPort, homeDir string) initPaths {
	configPath := expandHomeDir(DefaultConfigPath, homeDir)
	return initPaths{
		configDir:  fs.Dir(configPath),
		configPath: configPath,
	}
}

func ensureConfig(ctx context.Context, opts InitOptions, deps *Dependencies, paths initPaths, cfg ConfigFile) error {
	exists, err := pathExists(ctx, deps.FileSystem, paths.configPath)
	if err != nil {
		return fmt.Errorf("check config path: %w", ErrCritical)
	}
	if !exists {
		if opts.DryRun {
			return nil
		}
		return writeConfig(ctx, deps, paths, cfg)
	}
	info, err := deps.FileSystem.Stat(ctx, paths.configPath)
	if err != nil {
		return fmt.Errorf("stat config: %w", ErrCritical)
	}
	if info.IsDir() {
		return fmt.Errorf("config path is a directory: %w", ErrUsage)
	}
	if !opts.Force {
		return fmt.Errorf("config already exists at %s: %w", paths.configPath, ErrUsage)
	}
	if opts.DryRun {
		return nil
	}
	if err := backupConfig(ctx, deps.FileSystem, paths.configPath); err != nil {
		return err
	}
	return writeConfig(ctx, deps, paths, cfg)
}

func backupConfig(ctx context.Context, fs FileSystemPort, configPath string) error {
	backupPath := configPath + ".bak." + initNow().Format(initBackupTimeFormat)
	if err := fs.Rename(ctx, configPath, backupPath); err != nil {
		return fmt.Errorf("backup config: %w", ErrCritical)
	}
	return nil
}

func writeConfig(ctx context.Context, deps *Dependencies, paths initPaths, cfg ConfigFile) error {
	if err := deps.FileSystem.CreateDir(ctx, paths.configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", ErrCritical)
	}
	if err := deps.Config.Save(ctx, paths.configPath, cfg); err != nil {
		return fmt.Errorf("save config: %w", ErrCritical)
	}
	return nil
}

func ensureInitDirs(ctx context.Context, deps *Dependencies, launch LaunchConfig, dryRun bool) error {
	if dryRun {
		return nil
	}
	worldsDir := deps.FileSystem.Join(launch.DataDir, worldsDirName)
	if err := deps.FileSystem.CreateDir(ctx, worldsDir, 0o750); err != nil {
		return fmt.Errorf("create worlds dir: %w", ErrCritical)
	}
	return nil
}

func writeLaunchDescriptor(
	ctx context.Context,
	deps *Dependencies,
	descriptorPath string,
	opts InitOptions,
	logger *slog.Logger,
) error {
	executable := strings.TrimSpace(opts.Executable)
	if executable == "" {
		return nil
	}
	if !deps.FileSystem.IsAbs(executable) {
		return fmt.Errorf("executable path %q must be absolute: %w", executable, ErrUsage)
	}
	exists, err := pathExists(ctx, deps.FileSystem, descriptorPath)
	if err != nil {
		return fmt.Errorf("check launch descriptor: %w", ErrCritical)
	}
	if exists && !opts.Force {
		return fmt.Errorf("launch descriptor already exists at %s: %w", descriptorPath, ErrUsage)
	}
	if opts.DryRun {
		logger.InfoContext(ctx, "Would write launch descriptor", "path", descriptorPath, "executable", executable)
		return nil
	}
	if err := deps.FileSystem.CreateDir(ctx, deps.FileSystem.Dir(descriptorPath), 0o755); err != nil {
		return fmt.Errorf("create launch descriptor dir: %w", ErrCritical)
	}
	if err := deps.FileSystem.WriteFile(ctx, descriptorPath, []byte(executable+"\n"), 0o644); err != nil {
		return fmt.Errorf("write launch descriptor: %w", ErrCritical)
	}
	return nil
}

func pathExists(ctx context.Context, fs FileSystemPort, path string) (bool, error) {
	if _, err := fs.Stat(ctx, path); err != nil {
		if fs.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
