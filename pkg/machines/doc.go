// Package machines provides ready-made automatons over binary strings.
//
// Each automaton is available as a Blueprint (shared, built once) and as a
// typed wrapper whose Calculate returns the concrete output type.
package machines
