package dsl

import (
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/splitter"
)

// Blueprint is a compiled automaton. Its table and outputs are shared by every
// machine created from it and must not be modified after Build.
type Blueprint struct {
	Name     string
	Initial  domain.State
	Table    *domain.TransitionTable
	Outputs  *domain.OutputMapping
	Splitter splitter.Splitter

	// SplitterName and SplitterPattern record how Splitter was chosen,
	// so the blueprint can be written back as a definition.
	SplitterName    string
	SplitterPattern string
}

// TrapStates returns the states whose output is a Raise signal.
func (b *Blueprint) TrapStates() []domain.State {
	var out []domain.State
	for _, s := range b.Outputs.States() {
		if o, _ := b.Outputs.Get(s); o.IsRaise() {
			out = append(out, s)
		}
	}
	return out
}
