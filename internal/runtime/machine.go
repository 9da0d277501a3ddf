package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/automata/internal/logging"
	"github.com/aretw0/automata/internal/validator"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/splitter"
)

// Machine drives one automaton over a symbol stream.
//
// The transition table and the output mapping may be shared between machines;
// current is owned by the instance. A Machine is not safe for concurrent use,
// create one per goroutine instead.
type Machine struct {
	name     string
	initial  domain.State
	current  domain.State
	table    *domain.TransitionTable
	outputs  *domain.OutputMapping
	splitter splitter.Splitter
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithSplitter sets the symbol source (default: splitter.Chars).
func WithSplitter(s splitter.Splitter) MachineOption {
	return func(m *Machine) {
		if s != nil {
			m.splitter = s
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) MachineOption {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithName labels the machine in events and logs.
func WithName(name string) MachineOption {
	return func(m *Machine) {
		m.name = name
	}
}

// NewMachine creates a machine positioned at initial.
// A nil table or output mapping is replaced by an empty one.
func NewMachine(initial domain.State, table *domain.TransitionTable, outputs *domain.OutputMapping, opts ...MachineOption) *Machine {
	if table == nil {
		table = domain.NewTransitionTable()
	}
	if outputs == nil {
		outputs = domain.NewOutputMapping()
	}
	m := &Machine{
		initial:  initial,
		current:  initial,
		table:    table,
		outputs:  outputs,
		splitter: splitter.Chars{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.name != "" {
		m.logger = m.logger.With("machine", m.name)
	}
	return m
}

// Reset moves the machine back to its initial state.
func (m *Machine) Reset() {
	m.current = m.initial
}

// Process resets the machine and consumes every symbol of input.
//
// The input is split first; a shape error is returned before any transition
// happens. On the first symbol without a matching rule processing stops with a
// *domain.NoTransitionError and the machine stays at the last state reached.
// ctx is only handed to lifecycle hooks.
func (m *Machine) Process(ctx context.Context, input any) error {
	m.Reset()

	symbols, err := m.Split(input)
	if err != nil {
		return err
	}

	for i, symbol := range symbols {
		if err := m.step(ctx, i, symbol); err != nil {
			return err
		}
	}
	return nil
}

// Split segments input with the machine's splitter without touching its state.
func (m *Machine) Split(input any) ([]any, error) {
	return m.splitter.Split(input)
}

// Step applies a single symbol from the current state without resetting.
// A rejection carries Index 0 since Step has no view of the wider input;
// callers stepping through a split sequence set Index themselves.
func (m *Machine) Step(ctx context.Context, symbol any) error {
	return m.step(ctx, 0, symbol)
}

func (m *Machine) step(ctx context.Context, index int, symbol any) error {
	for _, rule := range m.table.Rules(m.current) {
		if !rule.Matches(symbol) {
			continue
		}
		from := m.current
		m.current = rule.To
		m.logger.Debug("transition", "from", from.Name, "to", rule.To.Name, "symbol", symbol)
		if m.hooks.OnTransition != nil {
			m.hooks.OnTransition(ctx, &domain.TransitionEvent{
				EventBase: m.event(domain.EventTransition),
				From:      from,
				To:        rule.To,
				Symbol:    symbol,
				Rule:      rule.String(),
			})
		}
		return nil
	}

	m.logger.Warn("no transition", "state", m.current.Name, "symbol", symbol, "index", index)
	if m.hooks.OnReject != nil {
		m.hooks.OnReject(ctx, &domain.RejectEvent{
			EventBase: m.event(domain.EventReject),
			State:     m.current,
			Symbol:    symbol,
		})
	}
	return &domain.NoTransitionError{State: m.current, Symbol: symbol, Index: index}
}

// CurrentState returns the state the machine is in.
func (m *Machine) CurrentState() domain.State {
	return m.current
}

// InitialState returns the state Reset moves to.
func (m *Machine) InitialState() domain.State {
	return m.initial
}

// Restore positions the machine at a state previously reported by
// CurrentState, e.g. from a persisted session. Only the initial state and
// states of the table are accepted.
func (m *Machine) Restore(state domain.State) error {
	if state != m.initial && !m.table.Knows(state) {
		return &unknownStateError{state: state}
	}
	m.current = state
	return nil
}

// Output returns the payload mapped to the current state.
// A state without an entry yields (nil, nil); a state mapped to domain.Raise
// yields a *domain.TrapStateError.
func (m *Machine) Output() (any, error) {
	return m.OutputContext(context.Background())
}

// OutputContext is Output with a context for the trap hook.
func (m *Machine) OutputContext(ctx context.Context) (any, error) {
	out, ok := m.outputs.Get(m.current)
	if !ok {
		return nil, nil
	}
	if out.IsRaise() {
		if m.hooks.OnTrap != nil {
			m.hooks.OnTrap(ctx, &domain.TrapEvent{
				EventBase: m.event(domain.EventTrap),
				State:     m.current,
			})
		}
		return nil, &domain.TrapStateError{State: m.current, Kind: out.Kind()}
	}
	return out.Value(), nil
}

// Calculate processes input and returns the resulting output.
// A nil input is a caller bug and yields domain.ErrMissingInput.
func (m *Machine) Calculate(ctx context.Context, input any) (any, error) {
	if input == nil {
		return nil, domain.ErrMissingInput
	}
	if err := m.Process(ctx, input); err != nil {
		return nil, err
	}
	return m.OutputContext(ctx)
}

// Validate inspects the table without running it.
func (m *Machine) Validate() []domain.Diagnostic {
	return validator.Validate(m.table, m.initial)
}

// Table returns the (shared) transition table.
func (m *Machine) Table() *domain.TransitionTable { return m.table }

// Outputs returns the (shared) output mapping.
func (m *Machine) Outputs() *domain.OutputMapping { return m.outputs }

// Name returns the label given with WithName.
func (m *Machine) Name() string { return m.name }

func (m *Machine) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Machine: m.name}
}

type unknownStateError struct {
	state domain.State
}

func (e *unknownStateError) Error() string {
	return "unknown state: " + e.state.Name
}

func (e *unknownStateError) Unwrap() error {
	return domain.ErrUnknownState
}
