// Package serverconfig writes the dedicated server's key=value config file.
package serverconfig

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"sort"

	"github.com/arumata/terrasup/internal/usecase"
)

const filePattern = "terrasup-*.cfg"

// Adapter implements ServerConfigPort using temporary files.
type Adapter struct {
	logger *slog.Logger
	dir    string
}

// New creates a server config adapter writing to the system temp directory.
func New(logger *slog.Logger) *Adapter {
	return NewInDir(logger, "")
}

// NewInDir creates a server config adapter writing to dir ("" means os.TempDir).
func NewInDir(logger *slog.Logger, dir string) *Adapter {
	if logger == nil {
		panic("server config adapter requires logger")
	}
	return &Adapter{logger: logger, dir: dir}
}

// Build writes one key=value line per present entry, in schema order, to a
// freshly created temporary file and returns its path.
func (a *Adapter) Build(ctx context.Context, doc usecase.ConfigDocument) (string, error) {
	_ = ctx
	data, err := Render(doc)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(a.dir, filePattern)
	if err != nil {
		return "", fmt.Errorf("create server config: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write server config: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close server config: %w", err)
	}
	a.logger.Debug("Server config written", "path", path, "bytes", len(data))
	return path, nil
}

// Render formats doc as key=value lines. Keys outside the schema are rejected.
func Render(doc usecase.ConfigDocument) ([]byte, error) {
	keys := usecase.ConfigKeys()
	var unknown []string
	for key := range doc {
		if !slices.Contains(keys, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown server config keys %v: %w", unknown, usecase.ErrUsage)
	}

	var buf bytes.Buffer
	for _, key := range keys {
		value, ok := scalar(doc[key])
		if !ok {
			continue
		}
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(value)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// scalar formats v, reporting false when v is absent (nil or a nil pointer).
func scalar(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface()), true
}
