package domain

// State is a named node of an automaton.
// Two states are equal iff their names are equal, so State can be used
// directly as a map key and compared with ==.
type State struct {
	Name string `json:"name" yaml:"name"`
}

// NewState creates a state with the given name. Empty names are allowed.
func NewState(name string) State {
	return State{Name: name}
}

func (s State) String() string {
	return s.Name
}
