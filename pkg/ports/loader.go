package ports

import "context"

// DefinitionSource defines where automaton definitions come from.
// This allows the storage layer (directory, memory) to be decoupled.
type DefinitionSource interface {
	// GetDefinition retrieves the raw document of a definition by name,
	// along with its format ("yaml" or "json").
	GetDefinition(name string) ([]byte, string, error)

	// ListDefinitions returns the names of all available definitions.
	ListDefinitions() ([]string, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled with the name of the changed
	// definition. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
