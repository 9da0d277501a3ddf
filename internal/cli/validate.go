package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/internal/presentation/tui"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/dsl"
)

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	Target string // Catalog name or definition file
	JSON   bool
	Watch  bool
	Output io.Writer
}

// Validate reports the structural findings of the target machine and
// whether it is clean.
func Validate(cat *Catalog, opts ValidateOptions) (bool, error) {
	bp, err := cat.Resolve(opts.Target)
	if err != nil {
		return false, err
	}
	return printValidation(opts, bp)
}

func printValidation(opts ValidateOptions, bp *dsl.Blueprint) (bool, error) {
	diags := automata.FromBlueprint(bp).Validate()

	switch {
	case opts.JSON:
		if diags == nil {
			diags = []domain.Diagnostic{}
		}
		enc := json.NewEncoder(opts.Output)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diags); err != nil {
			return false, err
		}
	case IsTerminal(opts.Output):
		rendered, err := tui.NewRenderer()(tui.ValidationReport(bp.Name, diags))
		if err != nil {
			return false, err
		}
		fmt.Fprint(opts.Output, rendered)
	default:
		if len(diags) == 0 {
			fmt.Fprintf(opts.Output, "%s is valid\n", bp.Name)
			break
		}
		fmt.Fprintln(opts.Output, strings.Join(domain.Messages(diags), "\n"))
	}
	return len(diags) == 0, nil
}
