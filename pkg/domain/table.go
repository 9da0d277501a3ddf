package domain

import (
	"reflect"
	"strings"
)

// TransitionTable holds every rule of an automaton, indexed by source state.
//
// Insertion order within a state is preserved and is the tie-break order for
// overlapping rules: the first matching rule wins. A table is meant to be built
// once and then shared read-only; it does no locking of its own, so concurrent
// Add calls must be serialised by the caller.
type TransitionTable struct {
	rules map[State][]*TransitionRule
	known map[State]struct{}
	order []State // first-seen order of every state (source or destination)
	count int
}

// NewTransitionTable creates an empty table.
func NewTransitionTable() *TransitionTable {
	return &TransitionTable{
		rules: make(map[State][]*TransitionRule),
		known: make(map[State]struct{}),
	}
}

// Add inserts a rule for (from, matcher) -> to.
//
// A raw slice (e.g. []string{"a", "b"}) expands into one rule per element,
// all of them validated before anything is inserted. Pass an AnyOf value to
// keep a disjunction as a single rule.
func (t *TransitionTable) Add(from State, matcher any, to State) error {
	var items []any
	switch v := matcher.(type) {
	case []any:
		items = v
	case []Matcher:
		items = toAnySlice(v)
	default:
		rv := reflect.ValueOf(matcher)
		if matcher != nil && rv.Kind() == reflect.Slice {
			items = make([]any, rv.Len())
			for i := range items {
				items[i] = rv.Index(i).Interface()
			}
		} else {
			items = []any{matcher}
		}
	}

	rules := make([]*TransitionRule, 0, len(items))
	for _, item := range items {
		rule, err := NewTransitionRule(from, item, to)
		if err != nil {
			return err
		}
		rules = append(rules, rule)
	}

	t.remember(from)
	t.remember(to)
	t.rules[from] = append(t.rules[from], rules...)
	t.count += len(rules)
	return nil
}

// MustAdd is like Add but panics on error. It returns the table so static
// automaton definitions can be chained.
func (t *TransitionTable) MustAdd(from State, matcher any, to State) *TransitionTable {
	if err := t.Add(from, matcher, to); err != nil {
		panic(err)
	}
	return t
}

func (t *TransitionTable) remember(s State) {
	if _, ok := t.known[s]; ok {
		return
	}
	t.known[s] = struct{}{}
	t.order = append(t.order, s)
}

// Rules returns the rules leaving state in insertion order.
// Unknown states yield an empty result. Callers must not modify the slice.
func (t *TransitionTable) Rules(state State) []*TransitionRule {
	return t.rules[state]
}

// Len returns the total number of rules.
func (t *TransitionTable) Len() int {
	return t.count
}

// States returns every state referenced by a rule, as source or destination.
func (t *TransitionTable) States() []State {
	return append([]State(nil), t.order...)
}

// Knows reports whether state appears anywhere in the table.
func (t *TransitionTable) Knows(state State) bool {
	_, ok := t.known[state]
	return ok
}

// Inputs returns the distinct matchers used across the whole table.
func (t *TransitionTable) Inputs() []Matcher {
	seen := make(map[string]struct{})
	var out []Matcher
	for _, s := range t.order {
		for _, r := range t.rules[s] {
			if _, ok := seen[r.Matcher.Key()]; ok {
				continue
			}
			seen[r.Matcher.Key()] = struct{}{}
			out = append(out, r.Matcher)
		}
	}
	return out
}

// InputsFor returns the distinct matchers of the rules leaving state.
func (t *TransitionTable) InputsFor(state State) []Matcher {
	seen := make(map[string]struct{})
	var out []Matcher
	for _, r := range t.rules[state] {
		if _, ok := seen[r.Matcher.Key()]; ok {
			continue
		}
		seen[r.Matcher.Key()] = struct{}{}
		out = append(out, r.Matcher)
	}
	return out
}

// Has reports whether state has a rule whose matcher equals m.
// Equality is by Key, not by evaluating the predicate.
func (t *TransitionTable) Has(state State, m Matcher) bool {
	return t.Count(state, m) > 0
}

// Count returns the number of rules of state whose matcher equals m.
func (t *TransitionTable) Count(state State, m Matcher) int {
	key := m.Key()
	n := 0
	for _, r := range t.rules[state] {
		if r.Matcher.Key() == key {
			n++
		}
	}
	return n
}

// Get returns the destination of the first rule of state whose matcher equals m.
func (t *TransitionTable) Get(state State, m Matcher) (State, bool) {
	key := m.Key()
	for _, r := range t.rules[state] {
		if r.Matcher.Key() == key {
			return r.To, true
		}
	}
	return State{}, false
}

// String renders one "A --[x]--> B" line per rule.
func (t *TransitionTable) String() string {
	var lines []string
	for _, s := range t.order {
		for _, r := range t.rules[s] {
			lines = append(lines, r.String())
		}
	}
	return strings.Join(lines, "\n")
}
