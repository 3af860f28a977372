// Package config reads and writes the supervisor's TOML configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arumata/terrasup/internal/usecase"
)

// Adapter implements ConfigPort using TOML files on disk.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new config adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("config adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// Load reads config from path or returns defaults when the file is missing.
// Keys absent from the file keep their default values; unknown keys are
// logged and ignored.
func (a *Adapter) Load(ctx context.Context, path string) (usecase.ConfigFile, error) {
	_ = ctx
	if strings.TrimSpace(path) == "" {
		return usecase.ConfigFile{}, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is controlled by usecase
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.logger.Debug("Config file not found, using defaults", "path", path)
			return usecase.DefaultConfigFile(), nil
		}
		return usecase.ConfigFile{}, err
	}

	cfg := usecase.DefaultConfigFile()
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return usecase.ConfigFile{}, fmt.Errorf("parse config toml: %w", err)
	}
	for _, key := range meta.Undecoded() {
		a.logger.Warn("Unknown config key ignored", "path", path, "key", key.String())
	}

	return cfg, nil
}

// Save writes config to path in TOML format with inline documentation.
func (a *Adapter) Save(ctx context.Context, path string, cfg usecase.ConfigFile) error {
	_ = ctx
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is empty")
	}

	content := renderCommentedTOML(cfg)

	// The file may carry the server password.
	return os.WriteFile(path, []byte(content), 0o600)
}

//nolint:lll // template readability is more important than line length.
func renderCommentedTOML(cfg usecase.ConfigFile) string {
	return fmt.Sprintf(`# terrasup configuration

# ── Dedicated Server ─────────────────────────────────────────────
[server]

# File whose first line is the absolute path of the server executable.
# Supports ~, $HOME, ${HOME}.
# Set via: terrasup init --executable <path>
launch_descriptor = %[1]q

# Directory holding the worlds/ folder and the instance lock.
data_dir = %[2]q

# World name. The world file is <data_dir>/worlds/<world_name>.wld.
world_name = %[3]q

# Message of the day. Empty leaves the server default.
motd = %[4]q

# Server password. Empty means no password.
password = %[5]q

# Maximum players. 0 leaves the server default.
players = %[6]d

# World size to create when the world file is missing:
#   1 small, 2 medium, 3 large, 0 never create.
autocreate = %[7]d

# ── Supervisor ───────────────────────────────────────────────────
[supervisor]

# How long to wait for the server to exit after "exit" before killing it.
exit_grace = %[8]q

# How long to wait for the process to disappear after a kill.
kill_settle = %[9]q

# How often server output is flushed to the console.
poll_interval = %[10]q

# ── Desktop Notifications ────────────────────────────────────────
[notifications]

# Notify when the server stops without a shutdown command.
enabled = %[11]t

# ── Logging ──────────────────────────────────────────────────────
[logging]

# Log directory. Supports ~, $HOME, ${HOME}. Created automatically.
dir = %[12]q

# Minimum log level: debug, info, warn, error.
level = %[13]q
`,
		cfg.Server.LaunchDescriptor,
		cfg.Server.DataDir,
		cfg.Server.WorldName,
		cfg.Server.MOTD,
		cfg.Server.Password,
		cfg.Server.Players,
		cfg.Server.AutoCreate,
		cfg.Supervisor.ExitGrace,
		cfg.Supervisor.KillSettle,
		cfg.Supervisor.PollInterval,
		cfg.Notifications.Enabled,
		cfg.Logging.Dir,
		cfg.Logging.Level,
	)
}
