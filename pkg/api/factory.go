// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/rs/zerolog"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct {
	logger zerolog.Logger
}

// NewServerFactory creates a new server factory
func NewServerFactory(logger zerolog.Logger) ServerFactory {
	return &DefaultServerFactory{logger: logger}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{logger: f.logger}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	logger zerolog.Logger
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(
	ctx context.Context,
	catalog SchemaCatalog,
	frames FrameStore,
	config ServerConfig,
) error {
	server := NewServer(catalog, frames, config, WithLogger(s.logger))
	return server.ListenAndServe(ctx)
}
