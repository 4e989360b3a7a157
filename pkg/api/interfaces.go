// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/structkit/pkg/schema"
	"github.com/ssargent/structkit/pkg/storage"
)

// SchemaCatalog resolves compiled schemas by name
type SchemaCatalog interface {
	// Get returns the compiled schema, or an error wrapping schema.ErrNotFound
	Get(name string) (*schema.Compiled, error)

	// Names lists the schemas currently loaded
	Names() []string
}

// FrameStore persists encoded records
type FrameStore interface {
	Put(schema string, payload []byte) (ksuid.KSUID, error)
	Get(id ksuid.KSUID) (*storage.Frame, error)
	Delete(id ksuid.KSUID) error
	List(after ksuid.KSUID, limit int) ([]*storage.Frame, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled or the listener fails
	StartServer(ctx context.Context, catalog SchemaCatalog, frames FrameStore, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
