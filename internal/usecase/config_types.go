package usecase

// ConfigFile describes TOML configuration structure.
type ConfigFile struct {
	Server        ServerConfig        `toml:"server"`
	Supervisor    SupervisorConfig    `toml:"supervisor"`
	Notifications NotificationsConfig `toml:"notifications"`
	Logging       LoggingConfig       `toml:"logging"`
}

// ServerConfig holds the dedicated server launch settings.
type ServerConfig struct {
	LaunchDescriptor string `toml:"launch_descriptor"`
	DataDir          string `toml:"data_dir"`
	WorldName        string `toml:"world_name"`
	MOTD             string `toml:"motd"`
	Password         string `toml:"password"`
	Players          int    `toml:"players"`
	AutoCreate       int    `toml:"autocreate"`
}

// SupervisorConfig holds shutdown and polling timings as Go duration strings.
type SupervisorConfig struct {
	ExitGrace    string `toml:"exit_grace"`
	KillSettle   string `toml:"kill_settle"`
	PollInterval string `toml:"poll_interval"`
}

// NotificationsConfig holds notification settings.
type NotificationsConfig struct {
	Enabled bool `toml:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level"`
}

// DefaultConfigPath is the config location relative to the home directory.
const DefaultConfigPath = "~/.config/terrasup/config.toml"

// DefaultConfigFile returns default TOML configuration.
func DefaultConfigFile() ConfigFile {
	return ConfigFile{
		Server: ServerConfig{
			LaunchDescriptor: "~/terraria/server/launch.path",
			DataDir:          "~/terraria/data",
			WorldName:        "TestWorld",
			AutoCreate:       1,
		},
		Supervisor: SupervisorConfig{
			ExitGrace:    "10s",
			KillSettle:   "300ms",
			PollInterval: "200ms",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Dir:   "~/.local/state/terrasup/logs",
			Level: "info",
		},
	}
}
