package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/splitter"
)

// Builder manages the construction of a Blueprint.
// Errors are collected and reported once by Build so calls can be chained.
type Builder struct {
	name     string
	initial  *domain.State
	table    *domain.TransitionTable
	outputs  *domain.OutputMapping
	splitter splitter.Splitter
	splitBy  string
	pattern  string
	errs     []error
}

// New creates a builder for the named automaton.
func New(name string) *Builder {
	return &Builder{
		name:    name,
		table:   domain.NewTransitionTable(),
		outputs: domain.NewOutputMapping(),
		splitBy: "chars",
	}
}

// Initial sets the initial state.
func (b *Builder) Initial(state string) *Builder {
	s := domain.NewState(state)
	b.initial = &s
	return b
}

// On adds a transition. matcher accepts everything domain.NewMatcher does;
// a raw slice adds one rule per element.
func (b *Builder) On(from string, matcher any, to string) *Builder {
	if err := b.table.Add(domain.NewState(from), matcher, domain.NewState(to)); err != nil {
		b.errs = append(b.errs, fmt.Errorf("transition %s -> %s: %w", from, to, err))
	}
	return b
}

// OnPattern adds a transition guarded by a regular expression.
func (b *Builder) OnPattern(from, expr, to string) *Builder {
	p, err := domain.Regex(expr)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("transition %s -> %s: %w", from, to, err))
		return b
	}
	return b.On(from, p, to)
}

// OnAny adds a single transition matching any of the given values.
func (b *Builder) OnAny(from string, values []any, to string) *Builder {
	m, err := domain.NewMatcher(values)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("transition %s -> %s: %w", from, to, err))
		return b
	}
	return b.On(from, m, to)
}

// Output maps a state to a payload.
func (b *Builder) Output(state string, value any) *Builder {
	b.outputs.Add(domain.NewState(state), value)
	return b
}

// Trap maps a state to a failure signal of the given kind.
func (b *Builder) Trap(state string, kind error) *Builder {
	b.outputs.Add(domain.NewState(state), domain.Raise(kind))
	return b
}

// SplitWith selects the symbol source.
func (b *Builder) SplitWith(s splitter.Splitter) *Builder {
	b.splitter = s
	b.splitBy = ""
	return b
}

// SplitBy selects a named symbol source (see splitter.ByName).
func (b *Builder) SplitBy(name, pattern string) *Builder {
	s, err := splitter.ByName(name, pattern)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	if name == "" {
		name = "chars"
	}
	b.splitter = s
	b.splitBy = name
	b.pattern = pattern
	return b
}

// Build compiles the blueprint.
func (b *Builder) Build() (*Blueprint, error) {
	if b.initial == nil {
		b.errs = append(b.errs, fmt.Errorf("automaton %q has no initial state", b.name))
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	s := b.splitter
	if s == nil {
		s = splitter.Chars{}
	}

	return &Blueprint{
		Name:            b.name,
		Initial:         *b.initial,
		Table:           b.table,
		Outputs:         b.outputs,
		Splitter:        s,
		SplitterName:    b.splitBy,
		SplitterPattern: b.pattern,
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Blueprint {
	bp, err := b.Build()
	if err != nil {
		panic(err)
	}
	return bp
}
