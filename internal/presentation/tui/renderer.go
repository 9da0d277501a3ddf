package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/automata/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// If the terminal renderer cannot be built, markdown is passed through as-is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ValidationReport formats diagnostics as a markdown document, grouped by kind
// in the order the validator emits them.
func ValidationReport(name string, diags []domain.Diagnostic) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)

	if len(diags) == 0 {
		sb.WriteString("No issues found.\n")
		return sb.String()
	}

	groups := []struct {
		kind  domain.DiagnosticKind
		title string
	}{
		{domain.DiagnosticUnreachable, "Unreachable states"},
		{domain.DiagnosticMissing, "Missing transitions"},
		{domain.DiagnosticAmbiguous, "Ambiguous transitions"},
	}
	for _, g := range groups {
		var items []string
		for _, d := range diags {
			if d.Kind != g.kind {
				continue
			}
			if d.Input == "" {
				items = append(items, fmt.Sprintf("- `%s`", d.State))
			} else {
				items = append(items, fmt.Sprintf("- `%s` on `%s`", d.State, d.Input))
			}
		}
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s (%d)\n\n%s\n\n", g.title, len(items), strings.Join(items, "\n"))
	}
	return sb.String()
}
