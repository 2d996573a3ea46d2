// Package source loads raw loan snapshot rows from files and databases.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/loanlens/loanlens/internal/config"
	"github.com/loanlens/loanlens/internal/model"
)

// ErrUnknownKind is returned when no opener is registered for a source kind.
var ErrUnknownKind = errors.New("unknown source kind")

// Source loads every raw record it holds.
type Source interface {
	Load(ctx context.Context) ([]model.RawRecord, error)
	Describe() string
	Close() error
}

// Opener builds a Source from configuration.
type Opener func(ctx context.Context, cfg config.SourceConfig) (Source, error)

// Registry holds openers by kind.
type Registry struct {
	openers map[string]Opener
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{openers: make(map[string]Opener)}
}

// Register adds an opener. Panics on duplicate kind.
func (r *Registry) Register(kind string, o Opener) {
	key := strings.ToLower(kind)
	if _, ok := r.openers[key]; ok {
		panic("duplicate source kind: " + key)
	}
	r.openers[key] = o
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.openers))
	for k := range r.openers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Open builds the source described by cfg.
func (r *Registry) Open(ctx context.Context, cfg config.SourceConfig) (Source, error) {
	o, ok := r.openers[strings.ToLower(cfg.Kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
	return o(ctx, cfg)
}

// DefaultRegistry returns a registry with all built-in source kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("csv", openCSV)
	r.Register("sqlite", openSQLite)
	r.Register("postgres", openPostgres)
	return r
}
