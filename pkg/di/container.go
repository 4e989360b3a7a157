// Package di provides dependency injection container
package di

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/ssargent/structkit/pkg/api" //nolint:depguard
	"github.com/ssargent/structkit/pkg/codec"
	"github.com/ssargent/structkit/pkg/config"
	"github.com/ssargent/structkit/pkg/schema"
	"github.com/ssargent/structkit/pkg/storage"
)

// framesDir is the pebble directory under the configured data dir
const framesDir = "frames"

// Container holds all the dependencies for the application. Components are
// built on first use from the configuration.
type Container struct {
	mu sync.Mutex

	config        *config.Config
	logger        zerolog.Logger
	serverFactory api.ServerFactory

	catalog *schema.Catalog
	frames  *storage.FrameStore
}

// NewContainer creates a new dependency injection container with the
// default configuration and a disabled logger
func NewContainer() *Container {
	return &Container{
		config: config.DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

// Configure replaces the configuration and logger. It must be called
// before any component is built.
func (c *Container) Configure(cfg *config.Config, logger zerolog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = cfg
	c.logger = logger
	codec.SetLogger(logger)
}

// Config returns the active configuration
func (c *Container) Config() *config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() zerolog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// Catalog returns the schema catalog for the configured schema directory
func (c *Container) Catalog() *schema.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog != nil {
		return c.catalog
	}

	resolver := codec.NewResolver(codec.WithDefaultCharset(c.config.Codec.DefaultCharset))
	c.catalog = schema.NewCatalog(c.config.SchemaDir,
		schema.WithResolver(resolver),
		schema.WithLogger(c.logger.With().Str("component", "schema").Logger()),
	)
	return c.catalog
}

// FrameStore opens the frame store under the configured data directory
func (c *Container) FrameStore() (*storage.FrameStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frames != nil {
		return c.frames, nil
	}

	if err := os.MkdirAll(c.config.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	frames, err := storage.NewFrameStore(filepath.Join(c.config.DataDir, framesDir))
	if err != nil {
		return nil, err
	}
	c.frames = frames
	return frames, nil
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.serverFactory == nil {
		c.serverFactory = api.NewServerFactory(c.logger.With().Str("component", "api").Logger())
	}
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverFactory = factory
}

// Close releases every component that holds resources
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result *multierror.Error
	if c.frames != nil {
		if err := c.frames.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close frame store: %w", err))
		}
		c.frames = nil
	}
	c.catalog = nil
	return result.ErrorOrNil()
}
