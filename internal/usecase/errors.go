package usecase

import "errors"

var (
	// ErrUsage indicates user input/usage errors.
	ErrUsage = errors.New("usage error")
	// ErrCritical indicates critical failures that should exit with error.
	ErrCritical = errors.New("critical error")
	// ErrConfig indicates a missing or unusable server launch configuration.
	ErrConfig = errors.New("configuration error")
	// ErrStartup indicates the server executable could not be started.
	ErrStartup = errors.New("server startup failed")
	// ErrProcessExited indicates a command was sent to a server that is no longer running.
	ErrProcessExited = errors.New("server process has exited")
	// ErrServerStopped indicates the server stopped without an operator request.
	ErrServerStopped = errors.New("server stopped unexpectedly")
	// ErrLockBusy indicates an active lock held by another process.
	ErrLockBusy = errors.New("lock busy")
	// ErrInterrupted indicates a canceled or interrupted operation.
	ErrInterrupted = errors.New("interrupted")
)
