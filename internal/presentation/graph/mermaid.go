package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/dsl"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []string
	CurrentState  string
}

// GenerateMermaid produces a Mermaid flowchart of an automaton.
// It applies semantic styling:
// - Initial state: ((Circle))
// - Trap state (Raise output): {{Hexagon}}
// - Default: [Rectangle], labelled with its output when it has one
// Rules sharing source and destination are drawn as one edge with their
// matchers joined by " | ". Overlay styles (Visited/Current) are applied if provided.
func GenerateMermaid(bp *dsl.Blueprint, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, s := range orderedStates(bp) {
		safeID := sanitizeMermaidID(s.Name)
		opener, closer := "[", "]"
		label := s.Name

		out, hasOutput := bp.Outputs.Get(s)
		switch {
		case s == bp.Initial:
			opener, closer = "((", "))"
		case hasOutput && out.IsRaise():
			opener, closer = "{{", "}}"
		}
		if hasOutput {
			label = fmt.Sprintf("%s<br/>%s", s.Name, escapeLabel(outputLabel(out)))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)
	}

	for _, s := range bp.Table.States() {
		var targets []domain.State
		labels := make(map[domain.State][]string)
		for _, r := range bp.Table.Rules(s) {
			if _, ok := labels[r.To]; !ok {
				targets = append(targets, r.To)
			}
			labels[r.To] = append(labels[r.To], escapeLabel(r.Matcher.String()))
		}
		for _, to := range targets {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n",
				sanitizeMermaidID(s.Name), strings.Join(labels[to], " | "), sanitizeMermaidID(to.Name))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, name := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(name)
			if !visitedSet[safeID] && safeID != "" && safeID != sanitizeMermaidID(overlay.CurrentState) {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
		}
	}

	return sb.String()
}

// orderedStates lists the initial state, then table states, then states that
// only appear in the output mapping.
func orderedStates(bp *dsl.Blueprint) []domain.State {
	seen := map[domain.State]bool{bp.Initial: true}
	out := []domain.State{bp.Initial}
	for _, group := range [][]domain.State{bp.Table.States(), bp.Outputs.States()} {
		for _, s := range group {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func outputLabel(o domain.Output) string {
	if o.IsRaise() {
		if o.Kind() == nil {
			return "raise"
		}
		return "raise: " + o.Kind().Error()
	}
	return fmt.Sprintf("out: %v", o.Value())
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	safe := sb.String()
	// "end" closes subgraphs in Mermaid.
	if safe == "" || strings.EqualFold(safe, "end") {
		safe += "_"
	}
	return safe
}
