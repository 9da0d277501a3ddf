package validator

import "github.com/aretw0/automata/pkg/domain"

// Validate runs every structural analysis over table, starting from initial,
// and concatenates their findings: unreachable states first, then missing
// transitions, then ambiguous ones. It never fails; an unsound table is
// reported as data.
func Validate(table *domain.TransitionTable, initial domain.State) []domain.Diagnostic {
	var diags []domain.Diagnostic
	diags = append(diags, Unreachable(table, initial)...)
	diags = append(diags, Missing(table)...)
	diags = append(diags, Ambiguous(table)...)
	return diags
}

// Unreachable reports every known state that cannot be reached from initial
// by following the rules of the table.
func Unreachable(table *domain.TransitionTable, initial domain.State) []domain.Diagnostic {
	visited := map[domain.State]bool{}
	queue := []domain.State{initial}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		// States without outgoing rules simply end this branch.
		for _, r := range table.Rules(current) {
			if !visited[r.To] {
				queue = append(queue, r.To)
			}
		}
	}

	var diags []domain.Diagnostic
	for _, s := range table.States() {
		if !visited[s] {
			diags = append(diags, domain.NewDiagnostic(domain.DiagnosticUnreachable, s, nil))
		}
	}
	return diags
}

// Missing reports every (state, input) pair of the global input vocabulary
// that has no rule.
//
// The vocabulary is shared by all states and compared by matcher identity, so
// the check is only meaningful for tables whose inputs are disjoint literals.
// Tables using patterns, AnyOf, or a different alphabet per state get findings
// for combinations that were never meant to apply.
func Missing(table *domain.TransitionTable) []domain.Diagnostic {
	inputs := table.Inputs()
	var diags []domain.Diagnostic
	for _, s := range table.States() {
		for _, in := range inputs {
			if !table.Has(s, in) {
				diags = append(diags, domain.NewDiagnostic(domain.DiagnosticMissing, s, in))
			}
		}
	}
	return diags
}

// Ambiguous reports every (state, input) pair with more than one rule.
// Only identical matchers count; two different matchers that overlap on some
// symbol (a literal and a pattern, say) are not reported.
func Ambiguous(table *domain.TransitionTable) []domain.Diagnostic {
	var diags []domain.Diagnostic
	for _, s := range table.States() {
		for _, in := range table.InputsFor(s) {
			if table.Count(s, in) > 1 {
				diags = append(diags, domain.NewDiagnostic(domain.DiagnosticAmbiguous, s, in))
			}
		}
	}
	return diags
}
