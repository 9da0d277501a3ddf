package automata

import _ "embed"

// Version is the release of the library and of the automata CLI.
//
//go:embed VERSION
var Version string
