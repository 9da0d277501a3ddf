package domain

import "fmt"

// TransitionRule binds (From, Matcher) to a destination state.
type TransitionRule struct {
	From    State
	Matcher Matcher
	To      State
}

// NewTransitionRule validates the raw matcher at construction time so that a
// malformed rule can never surface later as a runtime surprise.
// A slice matcher becomes a single AnyOf rule.
func NewTransitionRule(from State, matcher any, to State) (*TransitionRule, error) {
	m, err := NewMatcher(matcher)
	if err != nil {
		return nil, err
	}
	return &TransitionRule{From: from, Matcher: m, To: to}, nil
}

// Matches reports whether the rule applies to the symbol.
func (r *TransitionRule) Matches(symbol any) bool {
	return r.Matcher.Match(symbol)
}

func (r *TransitionRule) String() string {
	return fmt.Sprintf("%s --[%s]--> %s", r.From, r.Matcher, r.To)
}
