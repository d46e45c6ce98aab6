// Package source provides the conversion-time tabular sources. A source
// reads one input file into an in-memory Table; the conversion pipeline
// consumes it exactly once and never touches the original format again.
//
// Formats are registered by tag in a registry; adding a format means adding
// a registry entry, not branching logic.
package source

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/abemdxb/shardstream/pkg/block"
	"github.com/abemdxb/shardstream/pkg/errors"
	"github.com/abemdxb/shardstream/pkg/logger"
)

// Reader loads a whole tabular source into memory.
type Reader interface {
	// Format returns the format tag this reader handles.
	Format() string
	// LoadTable reads the source into a table with an inferred schema.
	LoadTable(ctx context.Context) (*block.Table, error)
}

// Factory creates a reader for one input path.
type Factory func(path string) (Reader, error)

// Registry manages source format registration and instantiation
type Registry struct {
	factories  map[string]Factory
	extensions map[string]string // file extension -> format tag
	mu         sync.RWMutex
	logger     *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new source registry
func NewRegistry() *Registry {
	return &Registry{
		factories:  make(map[string]Factory),
		extensions: make(map[string]string),
		logger:     logger.Get().With(zap.String("component", "source_registry")),
	}
}

// Register registers a source format factory together with the file
// extensions it claims.
func (r *Registry) Register(format string, factory Factory, exts ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[format]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "source format %s already registered", format)
	}

	r.factories[format] = factory
	for _, ext := range exts {
		r.extensions[ext] = format
	}
	r.logger.Debug("source format registered", zap.String("format", format))
	return nil
}

// Create creates a reader for the given format tag and path.
func (r *Registry) Create(format, path string) (Reader, error) {
	r.mu.RLock()
	factory, exists := r.factories[format]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedFormat, "source format %s not registered", format)
	}

	reader, err := factory(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create source reader")
	}

	return reader, nil
}

// ForPath resolves a reader from a path's file extension.
func (r *Registry) ForPath(path string) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	format, exists := r.extensions[ext]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedFormat, "unsupported source file format: %s", path)
	}

	return r.Create(format, path)
}

// List returns the registered format tags.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.factories))
	for name := range r.factories {
		formats = append(formats, name)
	}
	return formats
}

// Has checks if a format is registered.
func (r *Registry) Has(format string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[format]
	return exists
}

// Global registry functions

// Register registers a source format in the global registry
func Register(format string, factory Factory, exts ...string) error {
	return globalRegistry.Register(format, factory, exts...)
}

// Create creates a reader from the global registry
func Create(format, path string) (Reader, error) {
	return globalRegistry.Create(format, path)
}

// ForPath resolves a reader by file extension from the global registry
func ForPath(path string) (Reader, error) {
	return globalRegistry.ForPath(path)
}

// List returns registered formats from the global registry
func List() []string {
	return globalRegistry.List()
}

// Has checks if a format is registered in the global registry
func Has(format string) bool {
	return globalRegistry.Has(format)
}
