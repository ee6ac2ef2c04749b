package graph

import (
	"sort"
	"sync"

	"github.com/kbukum/flowkit/errors"
)

// Factory builds a node from serialized parameters.
type Factory func(params map[string]any) (*Node, error)

// Registry maps node kinds to factories. It backs both the YAML graph
// loader and codec reconstruction of persisted pipelines.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a kind name.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Get retrieves a factory by kind.
func (r *Registry) Get(kind string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// Build constructs a node of the given kind and stamps it with the kind
// and parameters so it stays serializable. Unknown kinds fail with
// errors.NotFound.
func (r *Registry) Build(kind string, params map[string]any) (*Node, error) {
	f, ok := r.Get(kind)
	if !ok {
		return nil, errors.NotFound("node kind", kind)
	}
	n, err := f(params)
	if err != nil {
		return nil, err
	}
	n.Kind = kind
	n.Params = params
	return n, nil
}

// List returns the sorted names of all registered kinds.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultRegistry is the package-level registry that built-in node kinds
// attach to via init().
var DefaultRegistry = NewRegistry()
