package it

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeServerScript mimics the dedicated server console: it echoes commands
// and stops on "exit". With ignoreExit set it keeps running until killed.
func fakeServerScript(ignoreExit bool) string {
	onExit := `echo "Saving world..."; exit 0`
	if ignoreExit {
		onExit = `echo "exit ignored"`
	}
	return `#!/bin/sh
echo "Terraria Server v1.4.4.9"
echo "config: $2"
echo "Server started"
while IFS= read -r line; do
  line=$(printf '%s' "$line" | tr -d '\r')
  case "$line" in
    exit) ` + onExit + ` ;;
    crash) echo "Unhandled exception"; exit 3 ;;
    *) echo "echo: $line" ;;
  esac
done
`
}

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake server is a POSIX shell script")
	}
}

func writeFakeServer(t *testing.T, dir string, ignoreExit bool) string {
	t.Helper()
	path := filepath.Join(dir, "TerrariaServer")
	if err := os.WriteFile(path, []byte(fakeServerScript(ignoreExit)), 0o600); err != nil {
		t.Fatal(err)
	}
	//nolint:gosec // the fake server must be executable.
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeDescriptor(t *testing.T, path, executable string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(executable+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func configPathFromOutput(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if path, ok := strings.CutPrefix(strings.TrimSpace(line), "config: "); ok {
			return path
		}
	}
	return ""
}
