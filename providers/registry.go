// Package providers builds [webvfs.PathProvider] instances from source configs.
// Each source type is tied to a factory that decodes the raw JSON source document.
package providers

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/brettbedarf/webvfs"
	"github.com/brettbedarf/webvfs/internal/util"
	"github.com/brettbedarf/webvfs/providers/multi"
)

// Factory creates a provider from a raw JSON source document
type Factory func(raw []byte) (webvfs.PathProvider, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[webvfs.SourceType]Factory
}

// NewRegistry returns an empty registry. See [Registry.RegisterBuiltins].
func NewRegistry() *Registry {
	return &Registry{factories: map[webvfs.SourceType]Factory{}}
}

// Register ties a factory to a source type. The first registration of a type wins.
func (r *Registry) Register(sourceType webvfs.SourceType, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[sourceType]; ok {
		logger := util.GetLogger("providers.Register")
		logger.Warn().Str("type", sourceType).Msg("Source type already registered")
		return
	}
	r.factories[sourceType] = factory
}

// GetFactory returns the factory registered for sourceType
func (r *Registry) GetFactory(sourceType webvfs.SourceType) (Factory, error) {
	r.mu.RLock()
	f, ok := r.factories[sourceType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no factory for %q: %w", sourceType, webvfs.ErrInvalidArgument)
	}
	return f, nil
}

// New picks the factory based on the "type" field of raw
func (r *Registry) New(raw []byte) (webvfs.PathProvider, error) {
	var meta webvfs.SourceConfig
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}
	f, err := r.GetFactory(meta.Type)
	if err != nil {
		return nil, err
	}
	return f(raw)
}

// Sources builds every raw source and resolves its priority. A source without an
// explicit priority gets its index in raws. The result is ordered by priority,
// lowest number first, keeping the list order on ties.
func (r *Registry) Sources(raws [][]byte) ([]webvfs.FileSource, error) {
	sources := make([]webvfs.FileSource, 0, len(raws))
	for i, raw := range raws {
		var meta webvfs.SourceConfig
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("decode source %d: %w", i, err)
		}
		p, err := r.New(raw)
		if err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i, meta.Type, err)
		}
		sources = append(sources, webvfs.FileSource{
			PathProvider: p,
			Priority:     util.ValueOrDefault(meta.Priority, i),
		})
	}
	slices.SortStableFunc(sources, func(a, b webvfs.FileSource) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return sources, nil
}

// FromSources overlays the providers built from raws in priority order
func (r *Registry) FromSources(raws [][]byte) (*multi.Provider, error) {
	sources, err := r.Sources(raws)
	if err != nil {
		return nil, err
	}
	layers := make([]webvfs.PathProvider, len(sources))
	for i, s := range sources {
		layers[i] = s.PathProvider
	}
	return multi.New(layers...)
}
