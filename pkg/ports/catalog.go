package ports

import (
	"github.com/aretw0/automata"
	"github.com/aretw0/automata/pkg/dsl"
)

// Catalog resolves automaton names for the driving adapters (HTTP, MCP, CLI).
// registry.Registry is the default implementation.
type Catalog interface {
	Names() []string
	Get(name string) (*dsl.Blueprint, error)
	New(name string, opts ...automata.Option) (*automata.Machine, error)
}
