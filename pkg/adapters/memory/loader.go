package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/automata/internal/compiler"
	"github.com/aretw0/automata/pkg/dsl"
)

// Loader implements ports.DefinitionSource using an in-memory map of YAML documents.
type Loader struct {
	docs map[string][]byte
}

// NewLoader creates a new Loader with the provided raw YAML documents.
func NewLoader(data map[string]string) *Loader {
	docs := make(map[string][]byte)
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Loader{
		docs: docs,
	}
}

// NewFromBlueprints creates a new Loader from compiled blueprints.
// This handles serialization automatically, improving DX for tests.
func NewFromBlueprints(bps ...*dsl.Blueprint) (*Loader, error) {
	docs := make(map[string][]byte)
	for _, bp := range bps {
		if bp.Name == "" {
			return nil, fmt.Errorf("blueprint missing name")
		}
		data, err := compiler.Encode(bp, compiler.FormatYAML)
		if err != nil {
			return nil, fmt.Errorf("failed to encode blueprint %s: %w", bp.Name, err)
		}
		docs[bp.Name] = data
	}
	return &Loader{docs: docs}, nil
}

// GetDefinition retrieves the raw definition by name.
func (l *Loader) GetDefinition(name string) ([]byte, string, error) {
	content, ok := l.docs[name]
	if !ok {
		return nil, "", fmt.Errorf("definition not found: %s", name)
	}
	return content, compiler.FormatYAML, nil
}

// ListDefinitions returns all available definition names.
func (l *Loader) ListDefinitions() ([]string, error) {
	keys := make([]string, 0, len(l.docs))
	for k := range l.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
