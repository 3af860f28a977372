package serverconfig

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arumata/terrasup/internal/usecase"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	return NewInDir(slog.New(slog.NewTextHandler(io.Discard, nil)), t.TempDir())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) // #nosec G304 -- test path
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestBuild_OmitsAbsentValues(t *testing.T) {
	adapter := newTestAdapter(t)
	path, err := adapter.Build(context.Background(), usecase.ConfigDocument{
		"motd":    nil,
		"players": 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); got != "players=4\n" {
		t.Fatalf("got %q, want %q", got, "players=4\n")
	}
}

func TestBuild_SchemaOrder(t *testing.T) {
	adapter := newTestAdapter(t)
	motd := "yooo whatsuppp!!!"
	doc := usecase.ConfigDocument{
		"autocreate": 1,
		"worldname":  "TestWorld",
		"world":      "/data/worlds/TestWorld.wld",
		"password":   "barbaz",
		"motd":       &motd,
		"worldpath":  "/data/worlds",
	}
	path, err := adapter.Build(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"worldpath=/data/worlds",
		"motd=yooo whatsuppp!!!",
		"password=barbaz",
		"world=/data/worlds/TestWorld.wld",
		"worldname=TestWorld",
		"autocreate=1",
	}, "\n") + "\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuild_NilPointerIsAbsent(t *testing.T) {
	adapter := newTestAdapter(t)
	var players *int
	var password *string
	path, err := adapter.Build(context.Background(), usecase.ConfigDocument{
		"players":   players,
		"password":  password,
		"worldname": "W",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); got != "worldname=W\n" {
		t.Fatalf("got %q", got)
	}
}

func TestBuild_EmptyDocumentWritesEmptyFile(t *testing.T) {
	adapter := newTestAdapter(t)
	path, err := adapter.Build(context.Background(), usecase.ConfigDocument{})
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, path); got != "" {
		t.Fatalf("expected empty file, got %q", got)
	}
}

func TestBuild_RejectsUnknownKeys(t *testing.T) {
	adapter := newTestAdapter(t)
	_, err := adapter.Build(context.Background(), usecase.ConfigDocument{"difficulty": 2, "players": 8})
	if !errors.Is(err, usecase.ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
	entries, err := os.ReadDir(adapter.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no file to be created, found %d", len(entries))
	}
}

func TestBuild_FreshFileEachCall(t *testing.T) {
	adapter := newTestAdapter(t)
	doc := usecase.ConfigDocument{"players": 4}
	first, err := adapter.Build(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	second, err := adapter.Build(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("expected distinct paths, both were %s", first)
	}
	if filepath.Dir(first) != adapter.dir {
		t.Fatalf("expected file in %s, got %s", adapter.dir, first)
	}
}

func TestBuild_MissingDirFails(t *testing.T) {
	adapter := NewInDir(slog.New(slog.NewTextHandler(io.Discard, nil)), filepath.Join(t.TempDir(), "missing"))
	if _, err := adapter.Build(context.Background(), usecase.ConfigDocument{"players": 1}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestNew_PanicsWithoutLogger(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(nil)
}
