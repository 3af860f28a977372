//go:build !windows

package filesystem

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestCreateDir_Permissions(t *testing.T) {
	umask := syscall.Umask(0)
	defer syscall.Umask(umask)

	adapter := New(slog.Default())
	path := filepath.Join(t.TempDir(), "perm")
	if err := adapter.CreateDir(context.Background(), path, 0o700); err != nil {
		t.Fatalf("expected create to succeed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected stat to succeed: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("expected mode 0700, got %o", info.Mode().Perm())
	}
}

func TestWriteFile_InvalidPermFallsBack(t *testing.T) {
	umask := syscall.Umask(0)
	defer syscall.Umask(umask)

	adapter := New(slog.Default())
	path := filepath.Join(t.TempDir(), "file")
	if err := adapter.WriteFile(context.Background(), path, []byte("x"), 0o1777); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("expected mode 0644, got %o", info.Mode().Perm())
	}
}
