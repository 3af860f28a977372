//go:build darwin

package notification

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Send sends a desktop notification on macOS, preferring terminal-notifier
// and falling back to osascript.
func (a *Adapter) Send(ctx context.Context, title, message string) error {
	if ctx.Err() != nil {
		return nil
	}

	if notifierPath, err := exec.LookPath("terminal-notifier"); err == nil {
		a.run(ctx, notifierPath, "-title", title, "-message", message, "-group", appName)
		return nil
	}

	a.run(ctx, "osascript", "-e", buildAppleScriptNotification(title, message))
	return nil
}

func buildAppleScriptNotification(title, message string) string {
	return fmt.Sprintf("display notification \"%s\" with title \"%s\"",
		escapeAppleScriptString(message), escapeAppleScriptString(title))
}

func escapeAppleScriptString(value string) string {
	return strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", " ",
		"\r", " ",
		"\t", " ",
	).Replace(value)
}
