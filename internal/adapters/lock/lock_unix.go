//go:build !windows

package lock

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processRunning probes pid with signal 0. EPERM still means it exists.
func processRunning(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
