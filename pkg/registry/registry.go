package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/dsl"
	"github.com/aretw0/automata/pkg/machines"
)

// Registry manages the available automatons by name.
// Blueprints are shared; every New call returns an independent machine.
type Registry struct {
	mu         sync.RWMutex
	blueprints map[string]*dsl.Blueprint
	opts       []automata.Option
}

// NewRegistry creates a new empty registry. opts are applied to every
// machine it creates (e.g. logger, lifecycle hooks).
func NewRegistry(opts ...automata.Option) *Registry {
	return &Registry{
		blueprints: make(map[string]*dsl.Blueprint),
		opts:       opts,
	}
}

// WithBuiltins creates a registry preloaded with the automatons of package machines.
func WithBuiltins(opts ...automata.Option) *Registry {
	r := NewRegistry(opts...)
	for _, bp := range machines.Builtins() {
		r.Register(bp)
	}
	return r
}

// Register adds a blueprint under its name.
// If a blueprint with the same name exists, it is overwritten.
func (r *Registry) Register(bp *dsl.Blueprint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blueprints[bp.Name] = bp
}

// Remove deletes a blueprint. Unknown names are ignored.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blueprints, name)
}

// Get looks up a blueprint by name.
func (r *Registry) Get(name string) (*dsl.Blueprint, error) {
	r.mu.RLock()
	bp, ok := r.blueprints[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMachineNotFound, name)
	}
	return bp, nil
}

// New creates a fresh machine from the named blueprint.
func (r *Registry) New(name string, opts ...automata.Option) (*automata.Machine, error) {
	bp, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	all := append(append([]automata.Option(nil), r.opts...), opts...)
	return automata.FromBlueprint(bp, all...), nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.blueprints))
	for name := range r.blueprints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered blueprints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blueprints)
}
