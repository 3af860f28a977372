//go:build !linux && !darwin && !windows

package notification

import "context"

// Send logs the notification; no desktop notifier is wired on this platform.
func (a *Adapter) Send(ctx context.Context, title, message string) error {
	if ctx.Err() != nil {
		return nil
	}
	a.logger.Warn(title, "message", message)
	return nil
}
