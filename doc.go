/*
Package automata is a deterministic finite state machine engine.

A machine is described by a transition table (from-state, input matcher,
to-state), an output mapping (state to payload, or to a failure signal) and an
initial state. Input is split into symbols by a Splitter and consumed one
symbol at a time; the first rule of the current state whose matcher accepts
the symbol wins.

# Concept

The definition is data. Tables and output mappings are built once, either in
Go (pkg/domain, pkg/dsl) or from YAML/JSON definition files, and shared by
any number of machines. A Machine only owns its current state, which makes it
cheap to create one per request or per session. The same definitions are
served by the CLI, the HTTP API and the MCP server.

# Key Features

  - Matchers: literals, regular expressions (prefix match) and any-of sets.
  - Trap states: an output can be a Raise signal that turns reading the output into an error.
  - Static validation: unreachable states, missing transitions and ambiguous transitions.
  - Sessions: step a machine across requests with memory or Redis persistence.

# Usage

	table := domain.NewTransitionTable().
		MustAdd(domain.NewState("S0"), "0", domain.NewState("S0")).
		MustAdd(domain.NewState("S0"), "1", domain.NewState("S1")).
		MustAdd(domain.NewState("S1"), "0", domain.NewState("S2")).
		MustAdd(domain.NewState("S1"), "1", domain.NewState("S0")).
		MustAdd(domain.NewState("S2"), "0", domain.NewState("S1")).
		MustAdd(domain.NewState("S2"), "1", domain.NewState("S2"))

	outputs := domain.NewOutputMapping().
		Add(domain.NewState("S0"), 0).
		Add(domain.NewState("S1"), 1).
		Add(domain.NewState("S2"), 2)

	m := automata.New(domain.NewState("S0"), table, outputs)
	out, err := m.Calculate(ctx, "1101") // 13 % 3 == 1

Definitions can also be loaded from files:

	m, err := automata.Load("./machines/mod3.yaml")
*/
package automata
