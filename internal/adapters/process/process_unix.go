//go:build !windows

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureCommand puts the server in its own process group so a kill also
// reaches the real server when the executable is a launch script.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessTree sends SIGKILL to the process group led by p.
func killProcessTree(p *os.Process) error {
	if p == nil || p.Pid <= 0 {
		return unix.EINVAL
	}
	err := unix.Kill(-p.Pid, unix.SIGKILL)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	// Group signal refused (e.g. EPERM on a reused group id); fall back to the leader.
	if killErr := p.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
		return errors.Join(err, killErr)
	}
	return nil
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, unix.EPIPE)
}
