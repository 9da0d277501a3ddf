package domain

import (
	"fmt"
	"strings"
)

// Output is the value associated with a state: either a plain payload or a
// signal that reading the output must fail with a given error kind.
type Output struct {
	value any
	raise bool
	kind  error
}

// Payload wraps a plain output value. nil is a valid payload.
func Payload(v any) Output {
	return Output{value: v}
}

// Raise marks a trap state. Reading the output of such a state fails with a
// *TrapStateError carrying kind (which may be nil).
func Raise(kind error) Output {
	return Output{raise: true, kind: kind}
}

// IsRaise reports whether the output is a failure signal.
func (o Output) IsRaise() bool { return o.raise }

// Value returns the payload. It is nil for Raise outputs.
func (o Output) Value() any { return o.value }

// Kind returns the error kind of a Raise output.
func (o Output) Kind() error { return o.kind }

func (o Output) String() string {
	if o.raise {
		if o.kind == nil {
			return "raise"
		}
		return "raise(" + o.kind.Error() + ")"
	}
	return fmt.Sprintf("%#v", o.value)
}

// OutputMapping associates states with outputs.
// Like TransitionTable it is built once and then only read.
type OutputMapping struct {
	outputs map[State]Output
	order   []State
}

// NewOutputMapping creates an empty mapping.
func NewOutputMapping() *OutputMapping {
	return &OutputMapping{outputs: make(map[State]Output)}
}

// Add sets the output of state, overwriting any previous value.
// Values that are already an Output (e.g. Raise) are stored as-is; anything
// else is stored as a Payload.
func (m *OutputMapping) Add(state State, value any) *OutputMapping {
	out, ok := value.(Output)
	if !ok {
		out = Payload(value)
	}
	if _, exists := m.outputs[state]; !exists {
		m.order = append(m.order, state)
	}
	m.outputs[state] = out
	return m
}

// Get returns the output of state; ok is false when the state has no entry.
func (m *OutputMapping) Get(state State) (Output, bool) {
	out, ok := m.outputs[state]
	return out, ok
}

// States returns the mapped states in insertion order.
func (m *OutputMapping) States() []State {
	return append([]State(nil), m.order...)
}

// Len returns the number of mapped states.
func (m *OutputMapping) Len() int {
	return len(m.outputs)
}

func (m *OutputMapping) String() string {
	parts := make([]string, 0, len(m.order))
	for _, s := range m.order {
		parts = append(parts, fmt.Sprintf("%s: %s", s, m.outputs[s]))
	}
	return strings.Join(parts, ", ")
}
