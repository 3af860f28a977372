//go:build windows

package notification

import (
	"context"
	"os/exec"
)

// Send shows a message box through msg.exe for the current session. Where
// msg.exe is unavailable (Home editions) the message is only logged.
func (a *Adapter) Send(ctx context.Context, title, message string) error {
	if ctx.Err() != nil {
		return nil
	}
	msgPath, err := exec.LookPath("msg")
	if err != nil {
		a.logger.Warn(title, "message", message)
		return nil
	}
	a.run(ctx, msgPath, "*", "/TIME:60", title+": "+message)
	return nil
}
