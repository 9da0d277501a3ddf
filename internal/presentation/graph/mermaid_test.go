package graph_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/automata/internal/presentation/graph"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/dsl"
	"github.com/aretw0/automata/pkg/machines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name        string
		bp          *dsl.Blueprint
		contains    []string
		notContains []string
	}{
		{
			name: "Initial State Shape",
			bp:   machines.ModThreeBlueprint(),
			contains: []string{
				"graph LR",
				"S0((\"S0<br/>out: 0\"))",
				"S1[\"S1<br/>out: 1\"]",
				"S0 -- \"1\" --> S1",
			},
		},
		{
			name: "Trap State Shape",
			bp:   machines.TrapBlueprint(),
			contains: []string{
				"TRAP{{\"TRAP<br/>raise: trapped\"}}",
				"TRAP -- \"0 | 1\" --> TRAP",
			},
			notContains: []string{
				"TRAP -- \"0\" --> TRAP",
			},
		},
		{
			name: "Edges Grouped By Destination",
			bp: dsl.New("grouped").
				Initial("A").
				On("A", "x", "B").On("A", "y", "B").On("A", "z", "A").
				MustBuild(),
			contains: []string{
				"A -- \"x | y\" --> B",
				"A -- \"z\" --> A",
			},
			notContains: []string{
				"A -- \"x\" --> B",
				"A -- \"y\" --> B",
			},
		},
		{
			name: "ID Sanitization",
			bp: dsl.New("ids").
				Initial("path/to.state").
				On("path/to.state", "a", "end").
				MustBuild(),
			contains: []string{
				"path_to_state((\"path/to.state\"))",
				"end_[\"end\"]",
				"path_to_state -- \"a\" --> end_",
			},
		},
		{
			name: "Label Escaping",
			bp: dsl.New("quotes").
				Initial("A").
				On("A", `"`, "A").
				MustBuild(),
			contains:    []string{"A -- \"#quot;\" --> A"},
			notContains: []string{`"""`},
		},
		{
			name: "Pattern And AnyOf Labels",
			bp: dsl.New("patterns").
				Initial("A").
				OnPattern("A", `\d+`, "B").
				OnAny("B", []any{"x", "y"}, "B").
				MustBuild(),
			contains: []string{
				`A -- "/\d+/" --> B`,
				`B -- "[x, y]" --> B`,
			},
		},
		{
			name: "Output Only State",
			bp: func() *dsl.Blueprint {
				bp := dsl.New("orphan").Initial("A").On("A", "a", "A").MustBuild()
				bp.Outputs.Add(domain.NewState("LONELY"), domain.Raise(errors.New("boom")))
				return bp
			}(),
			contains: []string{"LONELY{{\"LONELY<br/>raise: boom\"}}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := graph.GenerateMermaid(tt.bp, nil)
			for _, c := range tt.contains {
				assert.Contains(t, output, c)
			}
			for _, c := range tt.notContains {
				assert.NotContains(t, output, c)
			}
			assert.NotContains(t, output, "classDef")
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	overlay := &graph.GraphOverlay{
		VisitedStates: []string{"S0", "S1", "S1", "S2"},
		CurrentState:  "S2",
	}
	output := graph.GenerateMermaid(machines.ModThreeBlueprint(), overlay)

	require.Contains(t, output, "classDef visited")
	require.Contains(t, output, "classDef current")
	assert.Equal(t, 1, strings.Count(output, "class S1 visited;"))
	assert.Contains(t, output, "class S0 visited;")
	assert.Contains(t, output, "class S2 current;")
	assert.NotContains(t, output, "class S2 visited;")
}
