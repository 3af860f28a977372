package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/arumata/terrasup/internal/usecase"
)

const (
	exitSuccess       = 0
	exitCriticalError = 1
	exitUsageError    = 2
	exitConfigError   = 3
	exitServerStopped = 4
	exitLockBusy      = 76
	exitInterrupted   = 130
)

// exitCodeRules is checked in order; the first sentinel found in the error
// chain decides the code. Anything else is critical.
//
//nolint:gochecknoglobals // read-only lookup table.
var exitCodeRules = []struct {
	target error
	code   int
}{
	{usecase.ErrUsage, exitUsageError},
	{usecase.ErrConfig, exitConfigError},
	{usecase.ErrStartup, exitConfigError},
	{usecase.ErrServerStopped, exitServerStopped},
	{usecase.ErrLockBusy, exitLockBusy},
	{usecase.ErrInterrupted, exitInterrupted},
}

func mapExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	for _, rule := range exitCodeRules {
		if errors.Is(err, rule.target) {
			return rule.code
		}
	}
	return exitCriticalError
}

// handleCmdError reports err on stderr and stores the matching exit code.
func handleCmdError(exitCode *int, err error) {
	*exitCode = mapExitCodeWithLog(err)
}

// mapExitCodeWithLog prints err to stderr and returns its exit code.
// Interrupts are expected and stay quiet.
func mapExitCodeWithLog(err error) int {
	code := mapExitCode(err)
	if err != nil && code != exitInterrupted {
		fmt.Fprintln(os.Stderr, err)
	}
	return code
}
