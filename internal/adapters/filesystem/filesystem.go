// Package filesystem implements FileSystemPort on top of os and path/filepath.
package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/arumata/terrasup/internal/usecase"
)

const (
	defaultFilePerm = 0o644
	defaultDirPerm  = 0o755
)

// Adapter implements FileSystemPort using standard os and filepath packages
type Adapter struct {
	logger *slog.Logger
}

// New creates a new filesystem adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("filesystem adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// ReadFile reads file content
func (a *Adapter) ReadFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 - paths are controlled by usecase
}

// WriteFile writes content to file. Out-of-range permissions fall back to 0644.
func (a *Adapter) WriteFile(_ context.Context, path string, data []byte, perm int) error {
	// #nosec G306 - perm comes from the caller and is range checked
	return os.WriteFile(path, data, fileMode(perm, defaultFilePerm))
}

// CreateDir creates path and any missing parents.
func (a *Adapter) CreateDir(_ context.Context, path string, perm int) error {
	return os.MkdirAll(path, fileMode(perm, defaultDirPerm))
}

// Remove deletes a single file or empty directory.
func (a *Adapter) Remove(_ context.Context, path string) error {
	return os.Remove(path)
}

// Stat returns file info
func (a *Adapter) Stat(_ context.Context, path string) (usecase.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Rename moves src to dst, replacing dst if it is a file.
func (a *Adapter) Rename(_ context.Context, src, dst string) error {
	return os.Rename(src, dst)
}

func (a *Adapter) Join(elements ...string) string { return filepath.Join(elements...) }

func (a *Adapter) Dir(path string) string { return filepath.Dir(path) }

func (a *Adapter) IsAbs(path string) bool { return filepath.IsAbs(path) }

func (a *Adapter) PathSeparator() byte { return os.PathSeparator }

// IsNotExist unwraps err, unlike os.IsNotExist.
func (a *Adapter) IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func fileMode(perm, fallback int) fs.FileMode {
	if perm <= 0 || perm > 0o777 {
		perm = fallback
	}
	// #nosec G115 - perm is validated to be within safe range
	return fs.FileMode(perm)
}

var _ usecase.FileSystemPort = (*Adapter)(nil)
