// Package plugin defines the module interface and registry that compose the
// Sappho server at compile time.
package plugin

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sappho-media/sappho/internal/config"
)

// Route represents an HTTP route exposed by a plugin. Path is relative to
// the plugin's mount point (/api/v1/{plugin}).
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Plugin defines the interface that all Sappho modules must implement.
type Plugin interface {
	// Name returns the plugin's unique identifier (e.g., "backup").
	Name() string

	// Version returns the plugin's semantic version.
	Version() string

	// Init initializes the plugin with its configuration subtree and a
	// named logger.
	Init(cfg config.Config, logger *zap.Logger) error

	// Start begins the plugin's background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the plugin.
	Stop() error

	// Routes returns the HTTP routes this plugin exposes.
	Routes() []Route
}
