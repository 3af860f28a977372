package usecase

import "time"

// Config keys understood by the dedicated server, in the order they are written.
const (
	KeyWorldPath  = "worldpath"
	KeyMOTD       = "motd"
	KeyPassword   = "password"
	KeyPlayers    = "players"
	KeyWorld      = "world"
	KeyWorldName  = "worldname"
	KeyAutoCreate = "autocreate"
)

// ConfigKeys returns the server config schema in output order.
func ConfigKeys() []string {
	return []string{
		KeyWorldPath,
		KeyMOTD,
		KeyPassword,
		KeyPlayers,
		KeyWorld,
		KeyWorldName,
		KeyAutoCreate,
	}
}

// ConfigDocument maps server config keys to optional scalar values.
// A nil value (or nil pointer) means the key is absent and is not written.
type ConfigDocument map[string]any

// LaunchConfig describes how to start the server and which world it hosts.
type LaunchConfig struct {
	// DescriptorPath is a one-line file holding the server executable path.
	DescriptorPath string
	DataDir        string
	WorldName      string
	MOTD           *string
	Password       *string
	Players        *int
	AutoCreate     int
}

// Timings controls how long shutdown and output polling take.
type Timings struct {
	ExitGrace    time.Duration
	KillSettle   time.Duration
	PollInterval time.Duration
}

// DefaultTimings returns the stock shutdown and polling timings.
func DefaultTimings() Timings {
	return Timings{
		ExitGrace:    10 * time.Second,
		KillSettle:   300 * time.Millisecond,
		PollInterval: 200 * time.Millisecond,
	}
}

// ProcessState is the lifecycle state of a supervised server process.
type ProcessState int

const (
	StateNotStarted ProcessState = iota
	StateRunning
	StateStopping
	StateKilled
	StateStopped
)

func (s ProcessState) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateKilled:
		return "killed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ExitOutcome reports how a shutdown request ended.
type ExitOutcome int

const (
	// ExitAlreadyStopped means the process had exited before the request.
	ExitAlreadyStopped ExitOutcome = iota
	// ExitGraceful means the process honored the exit command within the grace window.
	ExitGraceful
	// ExitForced means the process was killed after the grace window elapsed.
	ExitForced
)

func (o ExitOutcome) String() string {
	switch o {
	case ExitAlreadyStopped:
		return "already-stopped"
	case ExitGraceful:
		return "graceful"
	case ExitForced:
		return "forced"
	default:
		return "unknown"
	}
}

// FileInfo represents file information.
type FileInfo interface {
	Name() string
	Size() int64
	ModTime() time.Time
	IsDir() bool
}

// LockInfo represents lock file information.
type LockInfo struct {
	PID               int       `json:"pid"`
	StartTime         time.Time `json:"start_time"`
	DataDir           string    `json:"data_dir"`
	World             string    `json:"world"`
	Hostname          string    `json:"hostname"`
	ProcessStartTicks int64     `json:"process_start_ticks"`
	ProcessStartID    string    `json:"process_start_id"`
}
