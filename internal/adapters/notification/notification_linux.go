//go:build linux

package notification

import (
	"context"
	"log/slog"
	"os/exec"
)

// Send sends a desktop notification on Linux.
func (a *Adapter) Send(ctx context.Context, title, message string) error {
	if ctx.Err() != nil {
		return nil
	}

	notifyPath, err := exec.LookPath("notify-send")
	if err != nil {
		a.logger.Debug("notification backend not found", slog.Any("err", err))
		return nil
	}

	a.run(ctx, notifyPath, "--app-name", appName, "--urgency", "critical", title, message)
	return nil
}
