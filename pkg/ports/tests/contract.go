package tests

import (
	"testing"

	"github.com/aretw0/automata/pkg/ports"
)

// DefinitionSourceContractTest is a reusable test suite that verifies if an adapter
// complies with ports.DefinitionSource. setupData maps names to the raw documents
// the source was seeded with.
func DefinitionSourceContractTest(t *testing.T, source ports.DefinitionSource, setupData map[string][]byte) {
	t.Helper()

	t.Run("GetDefinition_Success", func(t *testing.T) {
		for name, expectedContent := range setupData {
			content, format, err := source.GetDefinition(name)
			if err != nil {
				t.Fatalf("unexpected error getting definition %s: %v", name, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", name, content, expectedContent)
			}
			if format != "yaml" && format != "json" {
				t.Errorf("unexpected format %q for %s", format, name)
			}
		}
	})

	t.Run("GetDefinition_NotFound", func(t *testing.T) {
		_, _, err := source.GetDefinition("non-existent-definition")
		if err == nil {
			t.Error("expected error for non-existent definition, got nil")
		}
	})

	t.Run("ListDefinitions", func(t *testing.T) {
		names, err := source.ListDefinitions()
		if err != nil {
			t.Fatalf("unexpected error listing definitions: %v", err)
		}

		if len(names) != len(setupData) {
			t.Errorf("expected %d definitions, got %d", len(setupData), len(names))
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}

		for name := range setupData {
			if !lookup[name] {
				t.Errorf("definition %s missing from list", name)
			}
		}
	})
}
