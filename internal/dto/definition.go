package dto

// RaiseKey is the key of an output value that marks a trap state.
const RaiseKey = "raise"

// Definition is the serialized form of an automaton, as found in YAML or JSON
// definition files. The "mapstructure" tags are used when decoding from the
// generic map produced by either format.
type Definition struct {
	Name            string           `json:"name" yaml:"name" mapstructure:"name"`
	Description     string           `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Initial         string           `json:"initial" yaml:"initial" mapstructure:"initial"`
	Splitter        string           `json:"splitter,omitempty" yaml:"splitter,omitempty" mapstructure:"splitter"`
	SplitterPattern string           `json:"splitter_pattern,omitempty" yaml:"splitter_pattern,omitempty" mapstructure:"splitter_pattern"`
	Transitions     []TransitionSpec `json:"transitions" yaml:"transitions" mapstructure:"transitions"`

	// Outputs maps state names to payloads. A {raise: kind} value marks a trap state.
	Outputs map[string]any `json:"outputs,omitempty" yaml:"outputs,omitempty" mapstructure:"outputs"`
}

// TransitionSpec is one entry of the transitions list.
// Exactly one of On, Match or Any must be set.
type TransitionSpec struct {
	From string `json:"from" yaml:"from" mapstructure:"from"`
	To   string `json:"to" yaml:"to" mapstructure:"to"`

	// On is a literal, or a list of literals expanding into one rule each.
	On any `json:"on,omitempty" yaml:"on,omitempty" mapstructure:"on"`
	// Match is a regular expression applied as a prefix match.
	Match string `json:"match,omitempty" yaml:"match,omitempty" mapstructure:"match"`
	// Any is a disjunction kept as a single rule. Items are literals,
	// {match: expr} maps or nested lists.
	Any []any `json:"any,omitempty" yaml:"any,omitempty" mapstructure:"any"`
}
