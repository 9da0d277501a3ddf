/*
Package domain contains the core domain model of the automata engine.

It defines the building blocks of a deterministic finite-state machine: states,
input matchers, transition rules, the transition table and the output mapping.
The package is pure and free of I/O so that the same table can be shared,
read-only, by any number of machines.

# Key Entities

  - State: A named node in the state space. Comparable by value.
  - Matcher: A predicate over one input symbol (Literal, Pattern or AnyOf).
  - TransitionRule: An edge (from, matcher) -> to.
  - TransitionTable: All rules of an automaton, indexed by source state.
  - OutputMapping: Associates states with a payload or a failure signal (Raise).
  - Run: A persisted snapshot of an incremental session.
*/
package domain
