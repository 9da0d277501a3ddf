package machines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/pkg/dsl"
)

// ErrTrapped is the error kind raised by the Trap automaton once "00" is seen.
var ErrTrapped = errors.New("trapped")

// Names of the built-in automatons.
const (
	ModThreeName = "mod3"
	ParityName   = "parity"
	TrapName     = "trap"
)

var (
	modThreeBlueprint = sync.OnceValue(func() *dsl.Blueprint {
		return dsl.New(ModThreeName).
			Initial("S0").
			On("S0", "0", "S0").On("S0", "1", "S1").
			On("S1", "0", "S2").On("S1", "1", "S0").
			On("S2", "0", "S1").On("S2", "1", "S2").
			Output("S0", 0).Output("S1", 1).Output("S2", 2).
			MustBuild()
	})

	parityBlueprint = sync.OnceValue(func() *dsl.Blueprint {
		return dsl.New(ParityName).
			Initial("EVEN").
			On("EVEN", "0", "EVEN").On("EVEN", "1", "ODD").
			On("ODD", "0", "ODD").On("ODD", "1", "EVEN").
			Output("EVEN", false).Output("ODD", true).
			MustBuild()
	})

	trapBlueprint = sync.OnceValue(func() *dsl.Blueprint {
		return dsl.New(TrapName).
			Initial("S0").
			On("S0", "0", "S1").On("S0", "1", "S0").
			On("S1", "0", "TRAP").On("S1", "1", "S0").
			On("TRAP", "0", "TRAP").On("TRAP", "1", "TRAP").
			Output("S0", 0).Output("S1", 1).
			Trap("TRAP", ErrTrapped).
			MustBuild()
	})
)

// ModThreeBlueprint computes the remainder of a binary number divided by 3.
func ModThreeBlueprint() *dsl.Blueprint { return modThreeBlueprint() }

// ParityBlueprint reports whether a binary string has an odd number of ones.
func ParityBlueprint() *dsl.Blueprint { return parityBlueprint() }

// TrapBlueprint outputs the last bit until two consecutive zeros are seen,
// after which reading the output fails with ErrTrapped.
func TrapBlueprint() *dsl.Blueprint { return trapBlueprint() }

// Builtins returns every built-in blueprint.
func Builtins() []*dsl.Blueprint {
	return []*dsl.Blueprint{ModThreeBlueprint(), ParityBlueprint(), TrapBlueprint()}
}

// ModThree is a typed mod-3 machine.
type ModThree struct {
	*automata.Machine
}

// NewModThree creates a mod-3 machine.
func NewModThree(opts ...automata.Option) *ModThree {
	return &ModThree{automata.FromBlueprint(ModThreeBlueprint(), opts...)}
}

// Calculate returns the value of the binary string modulo 3.
func (m *ModThree) Calculate(ctx context.Context, binary string) (int, error) {
	return calculate[int](ctx, m.Machine, binary)
}

// Parity is a typed parity checker.
type Parity struct {
	*automata.Machine
}

// NewParity creates a parity checker.
func NewParity(opts ...automata.Option) *Parity {
	return &Parity{automata.FromBlueprint(ParityBlueprint(), opts...)}
}

// Calculate returns true when binary has an odd number of ones.
func (m *Parity) Calculate(ctx context.Context, binary string) (bool, error) {
	return calculate[bool](ctx, m.Machine, binary)
}

// Trap is a typed trap-state machine.
type Trap struct {
	*automata.Machine
}

// NewTrap creates a trap-state machine.
func NewTrap(opts ...automata.Option) *Trap {
	return &Trap{automata.FromBlueprint(TrapBlueprint(), opts...)}
}

// Calculate returns the output of the final state. Inputs containing "00"
// fail with ErrTrapped.
func (m *Trap) Calculate(ctx context.Context, binary string) (int, error) {
	return calculate[int](ctx, m.Machine, binary)
}

func calculate[T any](ctx context.Context, m *automata.Machine, input string) (T, error) {
	var zero T
	out, err := m.Calculate(ctx, input)
	if err != nil {
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected output %T", m.Name(), out)
	}
	return v, nil
}
