package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

const (
	lockDirName         = ".terrasup.lock"
	outputDrainTimeout  = time.Second
	outputDrainInterval = 20 * time.Millisecond
)

// ConsoleOptions describes an interactive console session.
type ConsoleOptions struct {
	Runtime *RuntimeConfig
	// Input carries operator commands, one per line. EOF stops reading but
	// keeps the server running.
	Input io.Reader
	// Output receives server output lines.
	Output io.Writer
}

// IsShutdownCommand reports whether cmd makes the server exit on its own.
func IsShutdownCommand(cmd string) bool {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "exit", "exit-nosave":
		return true
	default:
		return false
	}
}

// LockPath returns the instance lock location for a data directory.
func LockPath(fs FileSystemPort, dataDir string) string {
	return fs.Join(dataDir, lockDirName)
}

// RunConsole starts the server and relays operator commands and server output
// until the server exits or ctx is canceled.
func RunConsole(ctx context.Context, opts ConsoleOptions, deps *Dependencies, logger *slog.Logger) error {
	if logger == nil {
		panic("logger is required")
	}
	if ctx.Err() != nil {
		return ErrInterrupted
	}
	if err := validateConsoleInputs(opts, deps); err != nil {
		return err
	}
	launch := opts.Runtime.Launch

	worldsDir := deps.FileSystem.Join(launch.DataDir, worldsDirName)
	if err := deps.FileSystem.CreateDir(ctx, worldsDir, 0o750); err != nil {
		return fmt.Errorf("create worlds directory %s: %v: %w", worldsDir, err, ErrCritical)
	}

	lockPath := LockPath(deps.FileSystem, launch.DataDir)
	info := LockInfo{StartTime: time.Now(), DataDir: launch.DataDir, World: launch.WorldName}
	if err := deps.Lock.AcquireLock(ctx, lockPath, info); err != nil {
		return fmt.Errorf("data dir %s is in use: %v: %w", launch.DataDir, err, ErrLockBusy)
	}
	defer func() {
		if err := deps.Lock.ReleaseLock(context.WithoutCancel(ctx), lockPath); err != nil {
			logger.Warn("Cannot release instance lock", "path", lockPath, "error", err)
		}
	}()

	sup := NewSupervisor(deps, opts.Runtime.Timings, logger)
	proc := sup.Get()
	if proc == nil {
		var err error
		proc, err = sup.New(ctx, launch)
		if err != nil {
			return err
		}
	}

	c := &console{
		sup:     sup,
		proc:    proc,
		out:     opts.Output,
		runtime: opts.Runtime,
		deps:    deps,
		logger:  logger,
	}
	return c.run(ctx, ReadLines(opts.Input))
}

type console struct {
	sup     *Supervisor
	proc    ServerProcess
	out     io.Writer
	offset  int
	runtime *RuntimeConfig
	deps    *Dependencies
	logger  *slog.Logger
}

func (c *console) run(ctx context.Context, input <-chan string) error {
	ticker := time.NewTicker(c.runtime.Timings.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			outcome := c.sup.Shutdown()
			c.drain()
			c.logger.Info("Console interrupted", "outcome", outcome.String())
			return ErrInterrupted

		case line, ok := <-input:
			if !ok {
				c.logger.Debug("Command input closed; supervising until the server exits")
				input = nil
				continue
			}
			done, err := c.handleCommand(ctx, line)
			if done || err != nil {
				return err
			}

		case <-ticker.C:
			c.flush()
			if c.sup.Get() == nil {
				return c.unexpectedExit(ctx)
			}
		}
	}
}

// handleCommand forwards one operator line. It reports done once a shutdown
// command has taken the server down.
func (c *console) handleCommand(ctx context.Context, line string) (bool, error) {
	cmd := strings.TrimSpace(line)
	if cmd == "" {
		return false, nil
	}
	if err := c.proc.Send(cmd); err != nil {
		if errors.Is(err, ErrProcessExited) {
			c.logger.Warn("Command not delivered, server has exited", "command", cmd)
			return false, nil
		}
		c.logger.Error("Cannot send command", "command", cmd, "error", err)
		return false, nil
	}
	c.logger.Debug("Command sent", "command", cmd)
	if !IsShutdownCommand(cmd) {
		return false, nil
	}

	c.logger.Info("Waiting for server to shut down", "command", cmd)
	exited := make(chan error, 1)
	go func() { exited <- c.proc.Wait() }()
	select {
	case err := <-exited:
		if err != nil {
			c.logger.Warn("Server exited with error", "error", err)
		}
	case <-ctx.Done():
		outcome := c.sup.Shutdown()
		c.drain()
		c.logger.Info("Console interrupted while waiting for shutdown", "outcome", outcome.String())
		return true, ErrInterrupted
	}
	c.drain()
	c.sup.Get()
	c.logger.Info("Server stopped", "code", c.proc.ExitCode())
	return true, nil
}

func (c *console) unexpectedExit(ctx context.Context) error {
	c.drain()
	code := c.proc.ExitCode()
	c.logger.Error("Server stopped without a shutdown request", "code", code)
	if c.runtime.Notifications && c.deps.Notification != nil {
		msg := fmt.Sprintf("World %s stopped (exit code %d)", c.runtime.Launch.WorldName, code)
		if err := c.deps.Notification.Send(ctx, "terrasup", msg); err != nil {
			c.logger.Debug("Notification failed", "error", err)
		}
	}
	return fmt.Errorf("exit code %d: %w", code, ErrServerStopped)
}

func (c *console) flush() {
	lines := c.proc.OutputSince(c.offset)
	c.offset += len(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(c.out, line); err != nil {
			c.logger.Debug("Cannot write server output", "error", err)
			return
		}
	}
}

// drain waits briefly for the output stream to reach its end and prints
// whatever is left.
func (c *console) drain() {
	deadline := time.Now().Add(outputDrainTimeout)
	for !c.proc.CollectorFinished() && time.Now().Before(deadline) {
		c.flush()
		time.Sleep(outputDrainInterval)
	}
	c.flush()
}

func validateConsoleInputs(opts ConsoleOptions, deps *Dependencies) error {
	if opts.Runtime == nil {
		return fmt.Errorf("runtime config not available: %w", ErrCritical)
	}
	if opts.Input == nil || opts.Output == nil {
		return fmt.Errorf("console input and output are required: %w", ErrCritical)
	}
	if deps == nil {
		return fmt.Errorf("dependencies not available: %w", ErrCritical)
	}
	if deps.Lock == nil {
		return fmt.Errorf("lock adapter not available: %w", ErrCritical)
	}
	if err := validateSupervisorDependencies(deps); err != nil {
		return err
	}
	if opts.Runtime.Timings.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %w", ErrUsage)
	}
	return nil
}
