/*
Package dsl provides a fluent Go DSL for declaring automatons.

It is the programmatic counterpart of definition files: a Builder collects
transitions and outputs by state name and compiles them into a Blueprint, the
immutable (table, outputs, initial state, splitter) bundle that machines are
instantiated from.

Example usage:

	bp, err := dsl.New("mod3").
		Initial("S0").
		On("S0", "0", "S0").On("S0", "1", "S1").
		On("S1", "0", "S2").On("S1", "1", "S0").
		On("S2", "0", "S1").On("S2", "1", "S2").
		Output("S0", 0).Output("S1", 1).Output("S2", 2).
		Build()
	if err != nil {
		log.Fatal(err)
	}

	m := automata.FromBlueprint(bp)
	out, _ := m.Calculate(ctx, "110") // 0
*/
package dsl
