package usecase

import (
	"context"
	"time"
)

// Dependencies represents all external dependencies needed by use cases
type Dependencies struct {
	FileSystem   FileSystemPort
	Config       ConfigPort
	ServerConfig ServerConfigPort
	Process      ProcessPort
	Lock         LockPort
	Notification NotificationPort
}

// Ports define the interfaces that use cases need (hexagonal architecture)

// FileSystemPort defines filesystem operations needed by use cases
type FileSystemPort interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte, perm int) error
	CreateDir(ctx context.Context, path string, perm int) error
	Remove(ctx context.Context, path string) error
	Stat(ctx context.Context, path string) (FileInfo, error)
	Rename(ctx context.Context, src, dst string) error
	Join(elements ...string) string
	Dir(path string) string
	IsAbs(path string) bool
	PathSeparator() byte
	IsNotExist(err error) bool
}

// ConfigPort defines configuration operations needed by use cases
type ConfigPort interface {
	Load(ctx context.Context, path string) (ConfigFile, error)
	Save(ctx context.Context, path string, cfg ConfigFile) error
}

// ServerConfigPort writes the dedicated server's key=value config file.
type ServerConfigPort interface {
	// Build writes doc to a fresh temporary file and returns its path.
	Build(ctx context.Context, doc ConfigDocument) (string, error)
}

// SpawnRequest describes a server process to start.
type SpawnRequest struct {
	Executable string
	ConfigPath string
	ExitGrace  time.Duration
	KillSettle time.Duration
}

// ProcessPort starts supervised server processes.
type ProcessPort interface {
	Spawn(ctx context.Context, req SpawnRequest) (ServerProcess, error)
}

// ServerProcess is a running (or exited) server together with its output buffer.
type ServerProcess interface {
	PID() int
	ConfigPath() string
	State() ProcessState
	// Running is a non-blocking liveness probe.
	Running() bool
	// Send writes one command line. It fails with ErrProcessExited once the server is gone.
	Send(line string) error
	// Exit asks the server to stop and kills it if it does not within the grace window.
	Exit() ExitOutcome
	// Wait blocks until the process has exited.
	Wait() error
	// ExitCode is -1 while the process runs.
	ExitCode() int
	// Output returns a copy of the buffered lines, or the last maxLines when maxLines > 0.
	Output(maxLines int) []string
	// OutputSince returns a copy of the lines after the first offset lines.
	OutputSince(offset int) []string
	// CollectorFinished reports whether the output stream reached its end.
	CollectorFinished() bool
	// Release frees resources held after exit (stdin, config file).
	Release() error
}

// LockPort defines locking operations needed by use cases
type LockPort interface {
	AcquireLock(ctx context.Context, path string, info LockInfo) error
	ReleaseLock(ctx context.Context, path string) error
	IsLocked(ctx context.Context, path string) (bool, LockInfo, error)
}

// NotificationPort defines desktop notification operations needed by use cases
type NotificationPort interface {
	Send(ctx context.Context, title, message string) error
}
