package automata_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	s0 = domain.NewState("S0")
	s1 = domain.NewState("S1")
	s2 = domain.NewState("S2")
)

func modThree(opts ...automata.Option) *automata.Machine {
	table := domain.NewTransitionTable().
		MustAdd(s0, "0", s0).
		MustAdd(s0, "1", s1).
		MustAdd(s1, "0", s2).
		MustAdd(s1, "1", s0).
		MustAdd(s2, "0", s1).
		MustAdd(s2, "1", s2)
	outputs := domain.NewOutputMapping().Add(s0, 0).Add(s1, 1).Add(s2, 2)
	return automata.New(s0, table, outputs, opts...)
}

func TestMachine_ModThree(t *testing.T) {
	ctx := context.Background()
	m := modThree()

	tests := []struct {
		input string
		state domain.State
		want  int
	}{
		{"110", s0, 0},
		{"1101", s1, 1},
		{"1110", s2, 2},
		{"1111", s0, 0},
		{"1010", s1, 1},
		{"", s0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, err := m.Calculate(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.state, m.CurrentState())
		})
	}
}

func TestMachine_NoTransition(t *testing.T) {
	ctx := context.Background()
	m := modThree()

	_, err := m.Calculate(ctx, "10a1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoTransition)

	var nt *domain.NoTransitionError
	require.ErrorAs(t, err, &nt)
	assert.Equal(t, s2, nt.State)
	assert.Equal(t, "a", nt.Symbol)
	assert.Equal(t, 2, nt.Index)

	// No rollback: the machine stays where processing stopped.
	assert.Equal(t, s2, m.CurrentState())
}

func TestMachine_ResetAfterProcess(t *testing.T) {
	ctx := context.Background()
	m := modThree()

	for _, in := range []string{"1", "10", "1x"} {
		_ = m.Process(ctx, in)
		m.Reset()
		assert.Equal(t, m.InitialState(), m.CurrentState())
	}
}

func TestMachine_TrapOutput(t *testing.T) {
	ctx := context.Background()
	errBroken := errors.New("broken")
	trap := domain.NewState("TRAP")

	table := domain.NewTransitionTable().
		MustAdd(s0, "a", s1).
		MustAdd(s1, "b", trap)
	outputs := domain.NewOutputMapping().
		Add(s1, "ok").
		Add(trap, domain.Raise(errBroken))

	var trapped []domain.State
	m := automata.New(s0, table, outputs, automata.WithLifecycleHooks(domain.LifecycleHooks{
		OnTrap: func(_ context.Context, e *domain.TrapEvent) { trapped = append(trapped, e.State) },
	}))

	require.NoError(t, m.Process(ctx, "ab"))
	_, err := m.Output(ctx)
	assert.ErrorIs(t, err, domain.ErrTrapState)
	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, []domain.State{trap}, trapped)

	out, err := m.Calculate(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestMachine_AbsentOutput(t *testing.T) {
	m := automata.New(s0, nil, nil)

	out, err := m.Calculate(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestMachine_MissingInput(t *testing.T) {
	_, err := modThree().Calculate(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrMissingInput)
}

func TestMachine_IndependentInstances(t *testing.T) {
	ctx := context.Background()
	bp := modThree().Blueprint()

	a := automata.FromBlueprint(bp)
	b := automata.FromBlueprint(bp)
	require.NoError(t, a.Process(ctx, "1"))
	require.NoError(t, b.Process(ctx, "10"))

	assert.Equal(t, s1, a.CurrentState())
	assert.Equal(t, s2, b.CurrentState())
}

func TestMachine_Validate(t *testing.T) {
	assert.Empty(t, modThree().Validate())

	table := domain.NewTransitionTable().
		MustAdd(s0, "a", s1).
		MustAdd(s0, "a", s1).
		MustAdd(s1, "b", s0).
		MustAdd(s2, "a", s0)
	m := automata.New(s0, table, nil)

	kinds := map[domain.DiagnosticKind]int{}
	for _, d := range m.Validate() {
		kinds[d.Kind]++
	}
	assert.Positive(t, kinds[domain.DiagnosticUnreachable])
	assert.Positive(t, kinds[domain.DiagnosticMissing])
	assert.Positive(t, kinds[domain.DiagnosticAmbiguous])
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parity.yaml")
	content := []byte(`initial: EVEN
transitions:
  - {from: EVEN, on: "0", to: EVEN}
  - {from: EVEN, on: "1", to: ODD}
  - {from: ODD, on: "0", to: ODD}
  - {from: ODD, on: "1", to: EVEN}
outputs:
  EVEN: false
  ODD: true
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	m, err := automata.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "parity", m.Name())

	out, err := m.Calculate(context.Background(), "10110")
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestParse_InvalidDefinition(t *testing.T) {
	_, err := automata.Parse([]byte(`transitions: []`), "yaml")
	assert.Error(t, err)
}
