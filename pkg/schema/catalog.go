package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ssargent/structkit/pkg/codec"
)

// ErrNotFound is returned when a catalog has no schema with a name.
var ErrNotFound = errors.New("schema: not found")

var extensions = []string{".yaml", ".yml", ".toml"}

// Catalog holds compiled schemas by name. Schemas missing from memory are
// loaded from the catalog directory on first use.
type Catalog struct {
	resolver *codec.Resolver
	dir      string
	logger   zerolog.Logger

	mu      sync.RWMutex
	schemas map[string]*Compiled
	loads   singleflight.Group
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithResolver sets the resolver schemas are compiled with.
func WithResolver(r *codec.Resolver) CatalogOption {
	return func(c *Catalog) { c.resolver = r }
}

// WithLogger sets the catalog logger.
func WithLogger(l zerolog.Logger) CatalogOption {
	return func(c *Catalog) { c.logger = l }
}

// NewCatalog creates a catalog backed by dir. An empty dir disables lazy
// loading.
func NewCatalog(dir string, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		dir:     dir,
		logger:  zerolog.Nop(),
		schemas: make(map[string]*Compiled),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = codec.NewResolver()
	}
	return c
}

// Dir is the directory schemas are loaded from.
func (c *Catalog) Dir() string { return c.dir }

// Add compiles s and stores it, replacing any schema with the same name.
func (c *Catalog) Add(s *Schema) (*Compiled, error) {
	compiled, err := s.Compile(c.resolver)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.schemas[s.Name] = compiled
	c.mu.Unlock()

	c.logger.Debug().
		Str("schema", s.Name).
		Int("fields", len(s.Fields)).
		Int("size", compiled.Size()).
		Msg("schema compiled")
	return compiled, nil
}

// Get returns the compiled schema called name. Concurrent lookups of a
// schema that is not loaded yet share one load.
func (c *Catalog) Get(name string) (*Compiled, error) {
	c.mu.RLock()
	compiled, ok := c.schemas[name]
	c.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	if c.dir == "" || name == "" || filepath.Base(name) != name {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	v, err, _ := c.loads.Do(name, func() (any, error) {
		c.mu.RLock()
		compiled, ok := c.schemas[name]
		c.mu.RUnlock()
		if ok {
			return compiled, nil
		}
		return c.load(name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Compiled), nil
}

func (c *Catalog) load(name string) (*Compiled, error) {
	for _, ext := range extensions {
		path := filepath.Join(c.dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		s, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if s.Name != name {
			return nil, fmt.Errorf("%s: declares schema %q, want %q", path, s.Name, name)
		}
		c.logger.Info().Str("schema", name).Str("path", path).Msg("loading schema")
		return c.Add(s)
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// LoadDir compiles every schema file in the catalog directory. Every
// failing file is reported; the others are still added.
func (c *Catalog) LoadDir() error {
	if c.dir == "" {
		return nil
	}
	schemas, err := LoadDir(c.dir)
	var result *multierror.Error
	if err != nil {
		result = multierror.Append(result, err)
	}
	for _, s := range schemas {
		if _, err := c.Add(s); err != nil {
			result = multierror.Append(result, fmt.Errorf("schema %s: %w", s.Name, err))
		}
	}
	c.logger.Info().
		Str("dir", c.dir).
		Int("schemas", len(c.Names())).
		Msg("schema directory loaded")
	return result.ErrorOrNil()
}

// Names lists the loaded schemas in order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
