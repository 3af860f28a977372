// Package app wires the production adapters into usecase.Dependencies.
package app

import (
	"log/slog"

	"github.com/arumata/terrasup/internal/adapters/config"
	"github.com/arumata/terrasup/internal/adapters/filesystem"
	"github.com/arumata/terrasup/internal/adapters/lock"
	"github.com/arumata/terrasup/internal/adapters/notification"
	"github.com/arumata/terrasup/internal/adapters/process"
	"github.com/arumata/terrasup/internal/adapters/serverconfig"
	"github.com/arumata/terrasup/internal/usecase"
)

// NewDefaultDependencies creates dependencies with real adapters.
func NewDefaultDependencies(logger *slog.Logger) *usecase.Dependencies {
	if logger == nil {
		panic("default dependencies require logger")
	}
	return &usecase.Dependencies{
		FileSystem:   filesystem.New(logger),
		Config:       config.New(logger),
		ServerConfig: serverconfig.New(logger),
		Process:      process.New(logger),
		Lock:         lock.New(logger),
		Notification: notification.New(logger),
	}
}
