package automata

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/automata/internal/compiler"
	"github.com/aretw0/automata/internal/runtime"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/dsl"
	"github.com/aretw0/automata/pkg/splitter"
)

// Machine is the high-level entry point of the library.
// It wraps the internal runtime and provides a simplified API for consumers.
//
// A Machine holds a current state and is not safe for concurrent use. Machines
// built from the same Blueprint share its table and outputs, so creating one per
// goroutine or per request is cheap.
type Machine struct {
	runtime   *runtime.Machine
	blueprint *dsl.Blueprint
}

// Option defines a functional option for configuring a Machine.
type Option func(*config)

type config struct {
	name     string
	splitter splitter.Splitter
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// WithName labels the machine in logs and lifecycle events.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithSplitter overrides the symbol source (default: one symbol per character).
func WithSplitter(s splitter.Splitter) Option {
	return func(c *config) {
		c.splitter = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the machine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New creates a machine positioned at initial. A nil table or output mapping
// behaves as an empty one: every symbol is rejected and every output is absent.
func New(initial domain.State, table *domain.TransitionTable, outputs *domain.OutputMapping, opts ...Option) *Machine {
	if table == nil {
		table = domain.NewTransitionTable()
	}
	if outputs == nil {
		outputs = domain.NewOutputMapping()
	}
	return FromBlueprint(&dsl.Blueprint{
		Initial:      initial,
		Table:        table,
		Outputs:      outputs,
		Splitter:     splitter.Chars{},
		SplitterName: "chars",
	}, opts...)
}

// FromBlueprint creates a machine from a compiled blueprint.
// Options override the blueprint's name and splitter.
func FromBlueprint(bp *dsl.Blueprint, opts ...Option) *Machine {
	cfg := &config{name: bp.Name, splitter: bp.Splitter}
	for _, opt := range opts {
		opt(cfg)
	}

	// Ensure logger is initialized so every machine logs through the same handler type.
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	return &Machine{
		blueprint: bp,
		runtime: runtime.NewMachine(bp.Initial, bp.Table, bp.Outputs,
			runtime.WithName(cfg.name),
			runtime.WithSplitter(cfg.splitter),
			runtime.WithLifecycleHooks(cfg.hooks),
			runtime.WithLogger(cfg.logger),
		),
	}
}

// Load compiles a YAML or JSON definition file into a machine.
func Load(path string, opts ...Option) (*Machine, error) {
	bp, err := compiler.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBlueprint(bp, opts...), nil
}

// Parse compiles a definition document ("yaml" or "json") into a blueprint.
func Parse(data []byte, format string) (*dsl.Blueprint, error) {
	def, err := compiler.Parse(data, format)
	if err != nil {
		return nil, err
	}
	bp, err := compiler.Compile(def)
	if err != nil {
		return nil, fmt.Errorf("failed to compile definition: %w", err)
	}
	return bp, nil
}

// Reset moves the machine back to its initial state.
func (m *Machine) Reset() {
	m.runtime.Reset()
}

// Process resets the machine and consumes every symbol of input.
// It fails with domain.ErrInputShape when the splitter rejects the input and
// with a *domain.NoTransitionError on the first symbol no rule matches.
func (m *Machine) Process(ctx context.Context, input any) error {
	return m.runtime.Process(ctx, input)
}

// Split segments input into symbols the way Process does.
func (m *Machine) Split(input any) ([]any, error) {
	return m.runtime.Split(input)
}

// Step applies a single symbol without resetting.
// A *NoTransitionError from Step has Index 0; set it when stepping a sequence.
func (m *Machine) Step(ctx context.Context, symbol any) error {
	return m.runtime.Step(ctx, symbol)
}

// CurrentState returns the state the machine is in.
func (m *Machine) CurrentState() domain.State {
	return m.runtime.CurrentState()
}

// InitialState returns the state Reset moves to.
func (m *Machine) InitialState() domain.State {
	return m.runtime.InitialState()
}

// Restore positions the machine at a known state without processing input.
func (m *Machine) Restore(state domain.State) error {
	return m.runtime.Restore(state)
}

// Output returns the payload mapped to the current state: nil when the state
// has no entry, a *domain.TrapStateError when it is mapped to domain.Raise.
func (m *Machine) Output(ctx context.Context) (any, error) {
	return m.runtime.OutputContext(ctx)
}

// Calculate processes input and returns the output of the final state.
func (m *Machine) Calculate(ctx context.Context, input any) (any, error) {
	return m.runtime.Calculate(ctx, input)
}

// Validate reports unreachable states, missing transitions and ambiguous
// transitions. The checks are syntactic; see domain.Diagnostic.
func (m *Machine) Validate() []domain.Diagnostic {
	return m.runtime.Validate()
}

// Name returns the machine label.
func (m *Machine) Name() string {
	return m.runtime.Name()
}

// Table returns the transition table shared by the machine.
func (m *Machine) Table() *domain.TransitionTable {
	return m.runtime.Table()
}

// Outputs returns the output mapping shared by the machine.
func (m *Machine) Outputs() *domain.OutputMapping {
	return m.runtime.Outputs()
}

// Blueprint returns the definition the machine was built from.
func (m *Machine) Blueprint() *dsl.Blueprint {
	return m.blueprint
}
