package registry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/dsl"
	"github.com/aretw0/automata/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Builtins(t *testing.T) {
	r := registry.WithBuiltins()
	assert.Equal(t, []string{"mod3", "parity", "trap"}, r.Names())

	m, err := r.New("mod3")
	require.NoError(t, err)
	out, err := m.Calculate(context.Background(), "1110")
	require.NoError(t, err)
	assert.Equal(t, 2, out)
}

func TestRegistry_NotFound(t *testing.T) {
	r := registry.NewRegistry()
	_, err := r.New("missing")
	assert.ErrorIs(t, err, domain.ErrMachineNotFound)
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(dsl.New("x").Initial("A").Output("A", 1).MustBuild())
	r.Register(dsl.New("x").Initial("A").Output("A", 2).MustBuild())
	assert.Equal(t, 1, r.Len())

	m, err := r.New("x")
	require.NoError(t, err)
	out, err := m.Calculate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	r.Remove("x")
	assert.Zero(t, r.Len())
}

func TestRegistry_IndependentMachines(t *testing.T) {
	r := registry.WithBuiltins()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := r.New("parity")
			if !assert.NoError(t, err) {
				return
			}
			out, err := m.Calculate(ctx, "1011")
			assert.NoError(t, err)
			assert.Equal(t, true, out)
		}()
	}
	wg.Wait()
}
