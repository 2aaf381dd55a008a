package executor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flowcore/engine/pkg/types"
)

// Registry maps a node type-identifier to its Factory. It is safe for
// concurrent use; by convention it is built once at startup and treated
// as immutable during any execution (spec.md §4.4: "mutation is the
// caller's responsibility").
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory to the registry. Returns an error if the
// type-id is already present (spec.md §4.4: DuplicateType).
func (r *Registry) Register(f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := f.TypeID()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("executor: duplicate type registration for %q", id)
	}
	r.factories[id] = f
	return nil
}

// MustRegister registers f and panics if registration fails. Useful for
// package-level catalog wiring where a duplicate type is a programming
// error, not a runtime condition.
func (r *Registry) MustRegister(f Factory) {
	if err := r.Register(f); err != nil {
		panic(err)
	}
}

// Lookup returns the factory for typeID, or ok=false if none is
// registered.
func (r *Registry) Lookup(typeID string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typeID]
	return f, ok
}

// Create constructs a new Node instance for the given NodeSpec via its
// registered factory. Returns types.UnknownNodeTypeError if none is
// registered.
func (r *Registry) Create(nodeID, typeID string, config map[string]types.Value) (Node, error) {
	f, ok := r.Lookup(typeID)
	if !ok {
		return nil, types.ErrUnknownNodeType(nodeID, typeID)
	}
	return f.Create(config)
}

// ValidateConfig runs a factory's declared JSON Schema (if any) and then
// its own ValidateConfig for nodeID/typeID, wrapping either failure into
// types.ConfigurationError.
func (r *Registry) ValidateConfig(nodeID, typeID string, config map[string]types.Value) error {
	f, ok := r.Lookup(typeID)
	if !ok {
		return types.ErrUnknownNodeType(nodeID, typeID)
	}
	if schema := f.Metadata().ConfigSchema; schema != "" {
		if err := validateConfigSchema(schema, config); err != nil {
			return types.ErrConfiguration(nodeID, err.Error())
		}
	}
	if err := f.ValidateConfig(config); err != nil {
		return types.ErrConfiguration(nodeID, err.Error())
	}
	return nil
}

// List returns metadata for every registered type, sorted by TypeID for
// deterministic introspection output.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Metadata, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f.Metadata())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}

// Has reports whether typeID is registered.
func (r *Registry) Has(typeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeID]
	return ok
}
