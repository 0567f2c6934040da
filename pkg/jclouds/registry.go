package jclouds

import (
	"sort"
	"sync"
)

// BuilderSet pairs the two factories that construct a provider's context.
type BuilderSet struct {
	PropertiesBuilder PropertiesBuilderFactory
	ContextBuilder    ContextBuilderFactory
}

// DefaultBuilderSet returns the generic builder pair used when neither the
// provider nor its configuration selects a registered one.
func DefaultBuilderSet() BuilderSet {
	return BuilderSet{
		PropertiesBuilder: NewPropertiesBuilder,
		ContextBuilder:    NewContextBuilder,
	}
}

// Registry maps names to registered builder sets and capability type refs.
// Registration is explicit: provider packages expose a Register function
// that populates the registry they are handed. Later registrations under
// the same name replace earlier ones. A Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]BuilderSet
	types    map[string]TypeRef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderSet),
		types:    make(map[string]TypeRef),
	}
}

// RegisterBuilderSet registers the builder pair under name. The name is
// either a provider name (convention lookup) or a value configuration
// points at via "<provider>.contextbuilder" / "<provider>.propertiesbuilder".
func (r *Registry) RegisterBuilderSet(name string, set BuilderSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = set
}

// RegisterType registers a capability type ref under its name.
func (r *Registry) RegisterType(ref TypeRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[ref.Name] = ref
}

// BuilderSet returns the builder pair registered under name.
func (r *Registry) BuilderSet(name string) (BuilderSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.builders[name]
	return set, ok
}

// Type returns the capability type ref registered under name.
func (r *Registry) Type(name string) (TypeRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.types[name]
	return ref, ok
}

// IsSupported reports whether a builder set is registered under name.
func (r *Registry) IsSupported(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[name]
	return ok
}

// SupportedProviders returns the sorted names that have a builder set
// registered.
func (r *Registry) SupportedProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
