package domain

import "fmt"

// DiagnosticKind classifies a structural finding of the validator.
type DiagnosticKind string

const (
	DiagnosticUnreachable DiagnosticKind = "unreachable"
	DiagnosticMissing     DiagnosticKind = "missing"
	DiagnosticAmbiguous   DiagnosticKind = "ambiguous"
)

// Diagnostic is one structural finding about a transition table.
// Input is empty for unreachable states.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	State   State          `json:"state"`
	Input   string         `json:"input,omitempty"`
	Message string         `json:"message"`
}

// NewDiagnostic builds a diagnostic with the canonical message for its kind.
func NewDiagnostic(kind DiagnosticKind, state State, input Matcher) Diagnostic {
	d := Diagnostic{Kind: kind, State: state}
	if input != nil {
		d.Input = input.String()
	}
	switch kind {
	case DiagnosticUnreachable:
		d.Message = fmt.Sprintf("Unreachable state: %s", state)
	case DiagnosticMissing:
		d.Message = fmt.Sprintf("Missing transition: state=%s, input=%s", state, d.Input)
	case DiagnosticAmbiguous:
		d.Message = fmt.Sprintf("Ambiguous transition: state=%s, input=%s", state, d.Input)
	}
	return d
}

func (d Diagnostic) String() string {
	return d.Message
}

// Messages flattens diagnostics into their messages.
func Messages(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Message
	}
	return out
}
