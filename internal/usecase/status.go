package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const statusNotSet = "(not set)"

// statusPalette holds ANSI escape sequences for colorized status output.
// When useColor is false, all fields are empty strings (no-op coloring).
type statusPalette struct {
	reset    string
	bold     string
	dim      string
	green    string
	red      string
	yellow   string
	boldCyan string
}

func newStatusPalette(useColor bool) statusPalette {
	if !useColor {
		return statusPalette{}
	}
	return statusPalette{
		reset:    "\033[0m",
		bold:     "\033[1m",
		dim:      "\033[2m",
		green:    "\033[32m",
		red:      "\033[31m",
		yellow:   "\033[33m",
		boldCyan: "\033[1;36m",
	}
}

// StatusOptions describes status output behavior.
type StatusOptions struct {
	HomeDir   string
	Overrides Overrides
}

// StatusReport contains status information for rendering.
type StatusReport struct {
	ConfigFile       StatusPath
	LaunchDescriptor StatusPath
	Executable       StatusPath
	DataDir          StatusPath
	WorldFile        StatusPath
	LogDir           StatusPath
	WorldName        string
	DescriptorError  string
	Instance         StatusInstance
}

// StatusPath describes a path and its availability.
type StatusPath struct {
	Path   string
	Exists bool
}

// StatusInstance describes the supervisor currently holding the data dir, if any.
type StatusInstance struct {
	Running  bool
	PID      int
	Hostname string
	Since    time.Time
}

// Status inspects configuration, launch descriptor and instance lock.
func Status(ctx context.Context, opts StatusOptions, deps *Dependencies, logger *slog.Logger) (StatusReport, error) {
	if logger == nil {
		panic("logger is required")
	}
	if ctx.Err() != nil {
		return StatusReport{}, ErrInterrupted
	}
	if err := validateStatusDependencies(deps); err != nil {
		return StatusReport{}, err
	}
	homeDir := strings.TrimSpace(opts.HomeDir)
	if homeDir == "" {
		return StatusReport{}, fmt.Errorf("home directory is empty: %w", ErrCritical)
	}
	fs := deps.FileSystem

	paths := buildInitPaths(fs, homeDir)
	configExists, err := pathExists(ctx, fs, paths.configPath)
	if err != nil {
		return StatusReport{}, fmt.Errorf("check config path: %w", ErrCritical)
	}
	cfg, err := deps.Config.Load(ctx, paths.configPath)
	if err != nil {
		return StatusReport{}, fmt.Errorf("load config: %w", ErrCritical)
	}
	runtime, err := RuntimeConfigFromFile(cfg, homeDir, opts.Overrides)
	if err != nil {
		return StatusReport{}, err
	}
	launch := runtime.Launch

	report := StatusReport{
		ConfigFile: StatusPath{Path: paths.configPath, Exists: configExists},
		WorldName:  launch.WorldName,
	}
	report.LaunchDescriptor = statusPath(ctx, fs, launch.DescriptorPath)
	report.DataDir = statusPath(ctx, fs, launch.DataDir)
	report.WorldFile = statusPath(ctx, fs, fs.Join(launch.DataDir, worldsDirName, launch.WorldName+".wld"))
	if dir := strings.TrimSpace(cfg.Logging.Dir); dir != "" {
		report.LogDir = statusPath(ctx, fs, expandHomeDir(dir, homeDir))
	}

	executable, err := readLaunchDescriptor(ctx, fs, launch.DescriptorPath)
	if err != nil {
		report.DescriptorError = err.Error()
	} else {
		report.Executable = statusPath(ctx, fs, executable)
	}

	if deps.Lock != nil {
		held, info, err := deps.Lock.IsLocked(ctx, LockPath(fs, launch.DataDir))
		if err != nil {
			logger.Debug("Cannot read instance lock", "error", err)
		} else if held {
			report.Instance = StatusInstance{
				Running:  true,
				PID:      info.PID,
				Hostname: info.Hostname,
				Since:    info.StartTime,
			}
		}
	}

	contractStatusPaths(&report, homeDir, fs.PathSeparator())
	return report, nil
}

func statusPath(ctx context.Context, fs FileSystemPort, path string) StatusPath {
	exists, err := pathExists(ctx, fs, path)
	return StatusPath{Path: path, Exists: err == nil && exists}
}

// FormatStatus renders a status report for the terminal.
func FormatStatus(report StatusReport, useColor bool) string {
	p := newStatusPalette(useColor)
	var b strings.Builder

	fmt.Fprintf(&b, "%sterrasup Status%s\n", p.bold, p.reset)
	b.WriteString(strings.Repeat("─", 54))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%sConfiguration:%s\n", p.boldCyan, p.reset)
	appendStatusLine(&b, "Config file:", formatPathStatus(report.ConfigFile, p))
	appendStatusLine(&b, "Launch descriptor:", formatPathStatus(report.LaunchDescriptor, p))
	if report.DescriptorError != "" {
		appendStatusLine(&b, "Executable:", fmt.Sprintf("%s%s%s", p.red, report.DescriptorError, p.reset))
	} else {
		appendStatusLine(&b, "Executable:", formatPathStatus(report.Executable, p))
	}
	appendStatusLine(&b, "Log dir:", formatPathStatus(report.LogDir, p))

	b.WriteString("\n")
	fmt.Fprintf(&b, "%sWorld:%s %s\n", p.boldCyan, p.reset, formatTextValue(report.WorldName, p))
	appendStatusLine(&b, "Data dir:", formatPathStatus(report.DataDir, p))
	appendStatusLine(&b, "World file:", formatPathStatus(report.WorldFile, p))

	b.WriteString("\n")
	fmt.Fprintf(&b, "%sSupervisor:%s\n", p.boldCyan, p.reset)
	if !report.Instance.Running {
		appendStatusLine(&b, "State:", fmt.Sprintf("%sidle%s", p.dim, p.reset))
		return b.String()
	}
	appendStatusLine(&b, "State:", fmt.Sprintf("%srunning%s", p.green, p.reset))
	appendStatusLine(&b, "PID:", fmt.Sprintf("%d", report.Instance.PID))
	appendStatusLine(&b, "Host:", formatTextValue(report.Instance.Hostname, p))
	appendStatusLine(&b, "Since:", report.Instance.Since.Local().Format("2006-01-02 15:04:05"))
	return b.String()
}

func contractStatusPaths(report *StatusReport, homeDir string, sep byte) {
	for _, sp := range []*StatusPath{
		&report.ConfigFile,
		&report.LaunchDescriptor,
		&report.Executable,
		&report.DataDir,
		&report.WorldFile,
		&report.LogDir,
	} {
		sp.Path = contractHomeDir(sp.Path, homeDir, sep)
	}
}

func validateStatusDependencies(deps *Dependencies) error {
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

func appendStatusLine(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %-20s %s\n", label, value)
}

func formatPathStatus(path StatusPath, p statusPalette) string {
	if path.Path == "" {
		return fmt.Sprintf("%s%s%s", p.dim, statusNotSet, p.reset)
	}
	if path.Exists {
		return fmt.Sprintf("%s %s✓%s", path.Path, p.green, p.reset)
	}
	return fmt.Sprintf("%s %s(missing)%s", path.Path, p.yellow, p.reset)
}

func formatTextValue(value string, p statusPalette) string {
	if strings.TrimSpace(value) == "" {
		return fmt.Sprintf("%s%s%s", p.dim, statusNotSet, p.reset)
	}
	return value
}
