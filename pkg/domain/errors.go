package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is returned when an automaton is built from a value of
	// the wrong kind (e.g. a matcher leaf that is neither string, integer, boolean
	// nor a compiled pattern).
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInputShape is returned by a splitter when the input does not fit its strategy.
	ErrInputShape = errors.New("unexpected input shape")

	// ErrNoTransition is returned when the current state has no rule matching a symbol.
	ErrNoTransition = errors.New("no transition")

	// ErrTrapState is returned by Output when the current state is mapped to a Raise signal.
	ErrTrapState = errors.New("machine ended in trap state")

	// ErrMissingInput is returned by Calculate when it is called without an input.
	// It signals a caller bug, not bad data.
	ErrMissingInput = errors.New("calculate called without input")

	// ErrUnknownState is returned when restoring a machine to a state its table does not know.
	ErrUnknownState = errors.New("unknown state")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMachineNotFound is returned when a machine name is not registered.
	ErrMachineNotFound = errors.New("machine not found")
)

// MatcherTypeError reports a matcher built from an unsupported value.
type MatcherTypeError struct {
	Value any
}

func (e *MatcherTypeError) Error() string {
	return fmt.Sprintf("unsupported input matcher type: %T", e.Value)
}

func (e *MatcherTypeError) Unwrap() error {
	return ErrUnsupportedType
}

// InputShapeError reports an input that a splitter cannot segment.
type InputShapeError struct {
	Splitter string // Strategy name, e.g. "chars"
	Want     string // Expected shape, e.g. "string"
	Value    any
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("%s splitter: input must be a %s, got %T", e.Splitter, e.Want, e.Value)
}

func (e *InputShapeError) Unwrap() error {
	return ErrInputShape
}

// NoTransitionError identifies the state and symbol where processing stopped.
type NoTransitionError struct {
	State  State
	Symbol any
	Index  int // Position of Symbol in the split input
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("No transition for %s on '%v' (symbol #%d)", e.State, e.Symbol, e.Index)
}

func (e *NoTransitionError) Unwrap() error {
	return ErrNoTransition
}

// TrapStateError is returned by Output for states mapped to Raise.
// It matches both ErrTrapState and the configured Kind with errors.Is.
type TrapStateError struct {
	State State
	Kind  error
}

func (e *TrapStateError) Error() string {
	if e.Kind == nil {
		return fmt.Sprintf("FSM ended in TRAP state %s", e.State)
	}
	return fmt.Sprintf("FSM ended in TRAP state %s: %v", e.State, e.Kind)
}

func (e *TrapStateError) Unwrap() []error {
	if e.Kind == nil {
		return []error{ErrTrapState}
	}
	return []error{ErrTrapState, e.Kind}
}
