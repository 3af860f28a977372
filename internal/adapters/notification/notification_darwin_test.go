//go:build darwin

package notification

import "testing"

func TestBuildAppleScriptNotification_Escapes(t *testing.T) {
	got := buildAppleScriptNotification(`say "hi"`, "line1\nline2 \\ end")
	want := `display notification "line1 line2 \\ end" with title "say \"hi\""`
	if got != want {
		t.Fatalf("unexpected script:\n got %s\nwant %s", got, want)
	}
}
