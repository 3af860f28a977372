// Package lock guards a data directory against two supervisors running the
// same worlds at once.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/arumata/terrasup/internal/usecase"
)

const (
	osLinux  = "linux"
	infoName = "info"
)

// ErrHeld is returned by AcquireLock when a live supervisor owns the lock.
var ErrHeld = errors.New("instance lock is held")

// Adapter implements LockPort with a lock directory holding a JSON info file.
// Creating the directory is the atomic step; the info file identifies the owner.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new lock adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("lock adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// AcquireLock takes the lock at path. A lock left behind by a process that no
// longer exists is removed and taken over.
func (a *Adapter) AcquireLock(ctx context.Context, path string, info usecase.LockInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Mkdir(path, 0o750)
	if err == nil {
		return a.writeInfo(path, info)
	}
	if !os.IsExist(err) {
		return fmt.Errorf("create lock directory: %w", err)
	}

	holder, readErr := readInfo(path)
	if readErr == nil && ownerAlive(holder) {
		return fmt.Errorf("pid %d on %s since %s: %w",
			holder.PID, holder.Hostname, holder.StartTime.Format(time.RFC3339), ErrHeld)
	}

	a.logger.Warn("Removing stale instance lock", "path", path, "pid", holder.PID)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove stale lock: %w", err)
	}
	if err := os.Mkdir(path, 0o750); err != nil {
		// Another supervisor won the race after the cleanup.
		if os.IsExist(err) {
			return fmt.Errorf("lock taken during cleanup: %w", ErrHeld)
		}
		return fmt.Errorf("create lock after cleanup: %w", err)
	}
	return a.writeInfo(path, info)
}

// ReleaseLock removes the lock directory. A missing lock is not an error.
func (a *Adapter) ReleaseLock(_ context.Context, path string) error {
	return os.RemoveAll(path)
}

// IsLocked reports whether a live owner holds path, with the owner's info.
func (a *Adapter) IsLocked(_ context.Context, path string) (bool, usecase.LockInfo, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, usecase.LockInfo{}, nil
	}
	info, err := readInfo(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, usecase.LockInfo{}, nil
		}
		return false, usecase.LockInfo{}, err
	}
	return ownerAlive(info), info, nil
}

func (a *Adapter) writeInfo(path string, info usecase.LockInfo) error {
	if info.PID == 0 {
		info.PID = os.Getpid()
	}
	if info.StartTime.IsZero() {
		info.StartTime = time.Now()
	}
	if info.Hostname == "" {
		hostname, _ := os.Hostname()
		info.Hostname = hostname
	}
	if info.ProcessStartTicks == 0 {
		if ticks, ok := procStartTicks(info.PID); ok {
			info.ProcessStartTicks = ticks
		}
	}
	if info.ProcessStartID == "" {
		if id, ok := processStartID(info.PID); ok {
			info.ProcessStartID = id
		}
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal lock info: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, infoName), data, 0o600); err != nil {
		_ = os.RemoveAll(path)
		return fmt.Errorf("write lock info: %w", err)
	}
	a.logger.Debug("Instance lock acquired", "path", path, "pid", info.PID)
	return nil
}

func readInfo(path string) (usecase.LockInfo, error) {
	// #nosec G304 -- path is the lock directory chosen by the supervisor.
	data, err := os.ReadFile(filepath.Join(path, infoName))
	if err != nil {
		return usecase.LockInfo{}, err
	}
	var info usecase.LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return usecase.LockInfo{}, fmt.Errorf("invalid lock info: %w", err)
	}
	return info, nil
}

// ownerAlive decides whether the process recorded in info still owns the
// lock. Servers run for days, so the lock has no age limit; a recorded start
// identity catches pid reuse.
func ownerAlive(info usecase.LockInfo) bool {
	if info.PID <= 0 {
		return false
	}
	// The owner's pid means nothing on another host; assume it is alive.
	if info.Hostname != "" {
		if hostname, err := os.Hostname(); err == nil && hostname != info.Hostname {
			return true
		}
	}
	if info.ProcessStartID != "" {
		if id, ok := processStartID(info.PID); ok {
			return id == info.ProcessStartID
		}
	}
	if info.ProcessStartTicks != 0 {
		if ticks, ok := procStartTicks(info.PID); ok {
			return ticks == info.ProcessStartTicks
		}
	}
	return processRunning(info.PID)
}

// procStartTicks reads the start time field of /proc/<pid>/stat.
func procStartTicks(pid int) (int64, bool) {
	if pid <= 0 || runtime.GOOS != osLinux {
		return 0, false
	}
	// #nosec G304 -- fixed /proc location.
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, false
	}
	// The command name may contain spaces; fields are counted after ")".
	stat := string(data)
	if i := strings.LastIndexByte(stat, ')'); i >= 0 {
		stat = stat[i+1:]
	}
	fields := strings.Fields(stat)
	// starttime is field 22 overall, 20th after the command name.
	if len(fields) < 20 {
		return 0, false
	}
	ticks, err := strconv.ParseInt(fields[19], 10, 64)
	if err != nil {
		return 0, false
	}
	return ticks, true
}

func processStartID(pid int) (string, bool) {
	if pid <= 0 {
		return "", false
	}
	if ticks, ok := procStartTicks(pid); ok {
		return fmt.Sprintf("ticks:%d", ticks), true
	}
	if started, ok := processStartTime(pid); ok {
		return fmt.Sprintf("start:%d", started.UnixNano()), true
	}
	return "", false
}

var _ usecase.LockPort = (*Adapter)(nil)
