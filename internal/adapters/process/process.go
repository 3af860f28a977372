// Package process starts and supervises the dedicated server process.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/arumata/terrasup/internal/usecase"
)

const (
	exitCommand = "exit"
	lineEnding  = "\r\n"
)

// Adapter implements ProcessPort using os/exec.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new process adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("process adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// Spawn starts the server described by req.
func (a *Adapter) Spawn(ctx context.Context, req usecase.SpawnRequest) (usecase.ServerProcess, error) {
	srv, err := Start(ctx, req, a.logger)
	if err != nil {
		return nil, err
	}
	return srv, nil
}

// Server is one supervised server process and its output collector.
type Server struct {
	logger     *slog.Logger
	cmd        *exec.Cmd
	configPath string
	grace      time.Duration
	settle     time.Duration

	stdinMu sync.Mutex
	stdin   io.WriteCloser
	writer  *bufio.Writer

	stateMu  sync.Mutex
	state    usecase.ProcessState
	exitCode int
	waitErr  error

	done        chan struct{}
	output      *Collector
	releaseOnce sync.Once
	releaseErr  error
}

// Start runs [req.Executable, "-config", req.ConfigPath] with stdin piped
// and stdout and stderr sharing one pipe. The process is not tied to ctx:
// once started it lives until it exits or is stopped through Exit.
func Start(ctx context.Context, req usecase.SpawnRequest, logger *slog.Logger) (*Server, error) {
	_ = ctx
	if logger == nil {
		panic("server process requires logger")
	}
	defaults := usecase.DefaultTimings()
	if req.ExitGrace <= 0 {
		req.ExitGrace = defaults.ExitGrace
	}
	if req.KillSettle <= 0 {
		req.KillSettle = defaults.KillSettle
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create output pipe: %v: %w", err, usecase.ErrStartup)
	}

	// #nosec G204 -- executable comes from the operator's launch descriptor.
	cmd := exec.Command(req.Executable, "-config", req.ConfigPath)
	cmd.Stdout = pw
	cmd.Stderr = pw
	configureCommand(cmd)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("create stdin pipe: %v: %w", err, usecase.ErrStartup)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("start %s: %v: %w", req.Executable, err, usecase.ErrStartup)
	}
	// The child owns the write end now; EOF on pr means every holder is gone.
	_ = pw.Close()

	s := &Server{
		logger:     logger.With("pid", cmd.Process.Pid),
		cmd:        cmd,
		configPath: req.ConfigPath,
		grace:      req.ExitGrace,
		settle:     req.KillSettle,
		stdin:      stdin,
		writer:     bufio.NewWriter(stdin),
		state:      usecase.StateRunning,
		exitCode:   -1,
		done:       make(chan struct{}),
		output:     NewCollector(pr),
	}
	go s.wait()
	s.logger.Debug("Server process started", "executable", req.Executable, "config", req.ConfigPath)
	return s, nil
}

func (s *Server) wait() {
	err := s.cmd.Wait()
	code := -1
	if s.cmd.ProcessState != nil {
		code = s.cmd.ProcessState.ExitCode()
	}
	s.stateMu.Lock()
	s.waitErr = err
	s.exitCode = code
	s.state = usecase.StateStopped
	s.stateMu.Unlock()
	close(s.done)
	s.logger.Debug("Server process exited", "code", code, "error", err)
}

// PID returns the operating system process id.
func (s *Server) PID() int {
	return s.cmd.Process.Pid
}

// ConfigPath returns the config file the server was started with.
func (s *Server) ConfigPath() string {
	return s.configPath
}

// State returns the current lifecycle state.
func (s *Server) State() usecase.ProcessState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Server) setState(state usecase.ProcessState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state != usecase.StateStopped {
		s.state = state
	}
}

// Running reports whether the process has not exited yet. It never blocks.
func (s *Server) Running() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Send writes line followed by CRLF to the server's stdin and flushes it.
// line must be a single command: CR or LF inside it is rejected with
// usecase.ErrUsage.
func (s *Server) Send(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("send %q: command must be a single line: %w", line, usecase.ErrUsage)
	}
	if !s.Running() {
		return fmt.Errorf("send %q: %w", line, usecase.ErrProcessExited)
	}
	s.stdinMu.Lock()
	defer s.stdinMu.Unlock()

	_, err := s.writer.WriteString(line + lineEnding)
	if err == nil {
		err = s.writer.Flush()
	}
	if err == nil {
		return nil
	}
	if !s.Running() || errors.Is(err, os.ErrClosed) || isBrokenPipe(err) {
		return fmt.Errorf("send %q: %v: %w", line, err, usecase.ErrProcessExited)
	}
	return fmt.Errorf("send %q: %w", line, err)
}

// Exit sends "exit" and waits up to the grace window for the server to stop.
// If it does not, the process (and its process group where supported) is
// killed and Exit waits at most the settle delay before returning.
//
// The command is written from its own goroutine: a server that stopped
// reading stdin can block the write, and the kill is what unblocks it.
func (s *Server) Exit() usecase.ExitOutcome {
	if !s.Running() {
		return usecase.ExitAlreadyStopped
	}
	s.setState(usecase.StateStopping)
	grace := time.NewTimer(s.grace)
	defer grace.Stop()
	go func() {
		if err := s.Send(exitCommand); err != nil {
			s.logger.Debug("Exit command not delivered", "error", err)
		}
	}()

	select {
	case <-s.done:
		s.logger.Info("Server exited gracefully", "code", s.ExitCode())
		return usecase.ExitGraceful
	case <-grace.C:
	}

	s.setState(usecase.StateKilled)
	s.logger.Warn("Server ignored exit command, killing it", "grace", s.grace)
	if err := killProcessTree(s.cmd.Process); err != nil {
		s.logger.Warn("Cannot kill server process", "error", err)
	}

	settle := time.NewTimer(s.settle)
	defer settle.Stop()
	select {
	case <-s.done:
	case <-settle.C:
		s.logger.Warn("Server exit not confirmed after kill", "settle", s.settle)
	}
	return usecase.ExitForced
}

// Wait blocks until the process has exited and returns its wait error.
// It has no timeout; call it only after a command that stops the server.
func (s *Server) Wait() error {
	<-s.done
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.waitErr
}

// ExitCode returns the process exit code, or -1 while it runs.
func (s *Server) ExitCode() int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.exitCode
}

// Output returns a snapshot of the collected output. See Collector.Output.
func (s *Server) Output(maxLines int) []string {
	return s.output.Output(maxLines)
}

// OutputSince returns a snapshot of the output after the first offset lines.
func (s *Server) OutputSince(offset int) []string {
	return s.output.Since(offset)
}

// CollectorFinished reports whether the output stream has ended.
func (s *Server) CollectorFinished() bool {
	return s.output.Finished()
}

// Collector returns the output collector.
func (s *Server) Collector() *Collector {
	return s.output
}

// Release closes stdin and removes the config file. The output buffer stays
// readable. Calling it more than once is harmless.
func (s *Server) Release() error {
	s.releaseOnce.Do(func() {
		// Not under stdinMu: closing wakes a Send blocked on a full pipe.
		err := s.stdin.Close()
		if err != nil && !errors.Is(err, os.ErrClosed) {
			s.releaseErr = fmt.Errorf("close stdin: %w", err)
		}
		if s.configPath == "" {
			return
		}
		if err := os.Remove(s.configPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.releaseErr = errors.Join(s.releaseErr, fmt.Errorf("remove config: %w", err))
		}
	})
	return s.releaseErr
}

// Verify interface compliance at compile time.
var (
	_ usecase.ProcessPort   = (*Adapter)(nil)
	_ usecase.ServerProcess = (*Server)(nil)
)
