package source

import (
	"fmt"

	"coinpress/internal/ports"
)

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]ports.ContentSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.ContentSource{}}
}

// Register adds or replaces a content source implementation.
func (r *Registry) Register(src ports.ContentSource) {
	if r.sources == nil {
		r.sources = map[string]ports.ContentSource{}
	}
	r.sources[src.Name()] = src
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.ContentSource, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// ResolveAll maps every configured name to its implementation, failing on the
// first unknown name so config typos surface at startup.
func (r *Registry) ResolveAll(names []string) ([]ports.ContentSource, error) {
	resolved := make([]ports.ContentSource, 0, len(names))
	for _, name := range names {
		src, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, src)
	}
	return resolved, nil
}
