package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const worldsDirName = "worlds"

// Supervisor holds at most one live server process.
//
// Every operation takes the same mutex, so reaping and replacement never
// interleave. New does not check for a live process: callers are expected
// to call Get first, and two callers racing Get then New may both start a
// server. That window is accepted rather than closed with compare-and-swap.
type Supervisor struct {
	mu      sync.Mutex
	current ServerProcess
	deps    *Dependencies
	timings Timings
	logger  *slog.Logger
}

// NewSupervisor creates an empty registry.
func NewSupervisor(deps *Dependencies, timings Timings, logger *slog.Logger) *Supervisor {
	if logger == nil {
		panic("supervisor requires logger")
	}
	if deps == nil {
		panic("supervisor requires dependencies")
	}
	return &Supervisor{deps: deps, timings: timings, logger: logger}
}

// Get returns the live server process, or nil. A stored process that has
// exited is released and dropped first.
func (s *Supervisor) Get() ServerProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked()
	return s.current
}

// New reads the launch descriptor, writes a fresh server config, starts the
// server and stores it as the current process.
func (s *Supervisor) New(ctx context.Context, launch LaunchConfig) (ServerProcess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateSupervisorDependencies(s.deps); err != nil {
		return nil, err
	}

	executable, err := readLaunchDescriptor(ctx, s.deps.FileSystem, launch.DescriptorPath)
	if err != nil {
		return nil, err
	}

	doc := BuildConfigDocument(s.deps.FileSystem, launch)
	configPath, err := s.deps.ServerConfig.Build(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("write server config: %w", err)
	}

	proc, err := s.deps.Process.Spawn(ctx, SpawnRequest{
		Executable: executable,
		ConfigPath: configPath,
		ExitGrace:  s.timings.ExitGrace,
		KillSettle: s.timings.KillSettle,
	})
	if err != nil {
		_ = s.deps.FileSystem.Remove(ctx, configPath)
		return nil, err
	}

	if s.current != nil && s.current.Running() {
		s.logger.Warn("Replacing a server that is still running",
			"old_pid", s.current.PID(), "new_pid", proc.PID())
	}
	s.current = proc
	s.logger.Info("Server started",
		"pid", proc.PID(), "executable", executable, "config", configPath, "world", launch.WorldName)
	return proc, nil
}

// Shutdown exits and releases the current process, if any.
func (s *Supervisor) Shutdown() ExitOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ExitAlreadyStopped
	}
	proc := s.current
	outcome := proc.Exit()
	s.logger.Info("Server shut down", "pid", proc.PID(), "outcome", outcome.String(), "code", proc.ExitCode())
	s.releaseLocked()
	return outcome
}

func (s *Supervisor) reapLocked() {
	if s.current == nil || s.current.Running() {
		return
	}
	s.logger.Debug("Reaping exited server",
		"pid", s.current.PID(), "code", s.current.ExitCode(), "state", s.current.State().String())
	s.releaseLocked()
}

func (s *Supervisor) releaseLocked() {
	if err := s.current.Release(); err != nil {
		s.logger.Warn("Cannot release server resources", "pid", s.current.PID(), "error", err)
	}
	s.current = nil
}

// BuildConfigDocument maps launch settings onto the server config schema.
func BuildConfigDocument(fs FileSystemPort, launch LaunchConfig) ConfigDocument {
	worlds := fs.Join(launch.DataDir, worldsDirName)
	doc := ConfigDocument{
		KeyWorldPath:  worlds,
		KeyWorld:      fs.Join(worlds, launch.WorldName+".wld"),
		KeyWorldName:  launch.WorldName,
		KeyMOTD:       launch.MOTD,
		KeyPassword:   launch.Password,
		KeyPlayers:    launch.Players,
		KeyAutoCreate: nil,
	}
	if launch.AutoCreate > 0 {
		doc[KeyAutoCreate] = launch.AutoCreate
	}
	return doc
}

func readLaunchDescriptor(ctx context.Context, fs FileSystemPort, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("launch descriptor path is empty: %w", ErrConfig)
	}
	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		if fs.IsNotExist(err) {
			return "", fmt.Errorf("launch descriptor %s not found: %w", path, ErrConfig)
		}
		return "", fmt.Errorf("read launch descriptor %s: %v: %w", path, err, ErrConfig)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	executable := strings.TrimSpace(line)
	if executable == "" {
		return "", fmt.Errorf("launch descriptor %s is empty: %w", path, ErrConfig)
	}
	return executable, nil
}

func validateSupervisorDependencies(deps *Dependencies) error {
	if deps.FileSystem == nil {
		return fmt.Errorf("filesystem adapter not available: %w", ErrCritical)
	}
	if deps.ServerConfig == nil {
		return fmt.Errorf("server config adapter not available: %w", ErrCritical)
	}
	if deps.Process == nil {
		return fmt.Errorf("process adapter not available: %w", ErrCritical)
	}
	return nil
}
