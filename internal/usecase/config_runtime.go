package usecase

import (
	"fmt"
	"strings"
	"time"
)

// RuntimeConfig is the resolved configuration used to run the supervisor.
type RuntimeConfig struct {
	Launch        LaunchConfig
	Timings       Timings
	Notifications bool
}

// Overrides holds command-line values that take precedence over the config file.
// Empty fields leave the file value in place.
type Overrides struct {
	LaunchDescriptor string
	DataDir          string
	WorldName        string
}

// RuntimeConfigFromFile converts TOML config into runtime config for the supervisor.
func RuntimeConfigFromFile(cfg ConfigFile, homeDir string, overrides Overrides) (*RuntimeConfig, error) {
	cleanHome := strings.TrimSpace(homeDir)
	if cleanHome == "" {
		return nil, fmt.Errorf("home directory is empty: %w", ErrCritical)
	}

	server := cfg.Server
	applyOverride(&server.LaunchDescriptor, overrides.LaunchDescriptor)
	applyOverride(&server.DataDir, overrides.DataDir)
	applyOverride(&server.WorldName, overrides.WorldName)

	descriptor := strings.TrimSpace(server.LaunchDescriptor)
	if descriptor == "" {
		return nil, fmt.Errorf("server.launch_descriptor not configured: %w", ErrConfig)
	}
	dataDir := strings.TrimSpace(server.DataDir)
	if dataDir == "" {
		return nil, fmt.Errorf("server.data_dir not configured: %w", ErrConfig)
	}
	world := strings.TrimSpace(server.WorldName)
	if world == "" {
		return nil, fmt.Errorf("server.world_name not configured: %w", ErrConfig)
	}
	if strings.ContainsAny(world, `/\`) {
		return nil, fmt.Errorf("server.world_name %q must not contain path separators: %w", world, ErrUsage)
	}

	timings, err := timingsFromConfig(cfg.Supervisor)
	if err != nil {
		return nil, err
	}

	launch := LaunchConfig{
		DescriptorPath: expandHomeDir(descriptor, cleanHome),
		DataDir:        expandHomeDir(dataDir, cleanHome),
		WorldName:      world,
		AutoCreate:     server.AutoCreate,
	}
	if motd := strings.TrimSpace(server.MOTD); motd != "" {
		launch.MOTD = &motd
	}
	if password := server.Password; password != "" {
		launch.Password = &password
	}
	if players := server.Players; players > 0 {
		launch.Players = &players
	}

	return &RuntimeConfig{
		Launch:        launch,
		Timings:       timings,
		Notifications: cfg.Notifications.Enabled,
	}, nil
}

func applyOverride(target *string, value string) {
	if strings.TrimSpace(value) != "" {
		*target = value
	}
}

func timingsFromConfig(cfg SupervisorConfig) (Timings, error) {
	timings := DefaultTimings()
	fields := []struct {
		name   string
		value  string
		target *time.Duration
	}{
		{"supervisor.exit_grace", cfg.ExitGrace, &timings.ExitGrace},
		{"supervisor.kill_settle", cfg.KillSettle, &timings.KillSettle},
		{"supervisor.poll_interval", cfg.PollInterval, &timings.PollInterval},
	}
	for _, f := range fields {
		value := strings.TrimSpace(f.value)
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return Timings{}, fmt.Errorf("parse %s %q: %v: %w", f.name, value, err, ErrUsage)
		}
		if d <= 0 {
			return Timings{}, fmt.Errorf("%s must be positive: %w", f.name, ErrUsage)
		}
		*f.target = d
	}
	return timings, nil
}
