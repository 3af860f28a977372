// Package notification raises desktop notifications through the platform's
// notifier command. Failures are logged and never returned: a missing
// notifier must not change how the supervisor exits.
package notification

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

const (
	appName     = "terrasup"
	sendTimeout = 5 * time.Second
)

// Adapter implements NotificationPort.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new notification adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger}
}

// run executes one notifier invocation bounded by sendTimeout.
func (a *Adapter) run(ctx context.Context, name string, args ...string) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		a.logger.Debug("notification failed", "notifier", name, slog.Any("err", err))
	}
}
