package runtime

import "sync"

// Registry is the in-process Module Table implementation: modules are
// registered by name at build time and looked up by name at dispatch time
// (spec.md §9: "a registry: each module is a named implementation of a
// Module capability... registered at build time; dispatch references
// names that are looked up in a map"), grounded on the Name()/Run()
// interface shape in other_examples' kumaraguru1735-shadow scanner.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds or replaces the module under its own Name().
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.Name()] = m
}

// Get looks up a module by name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// Names returns every registered module name, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for name := range r.modules {
		out = append(out, name)
	}
	return out
}
