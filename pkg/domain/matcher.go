package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MatcherKind tags the variant of a Matcher.
type MatcherKind string

const (
	KindLiteral MatcherKind = "literal"
	KindPattern MatcherKind = "pattern"
	KindAnyOf   MatcherKind = "any"
)

// Matcher is a predicate over a single input symbol.
//
// The set of implementations is closed: Literal, Pattern and AnyOf.
// Key returns a canonical identity used by the table queries (Has, Count, Get);
// two matchers are considered the same input iff their keys are equal.
// Patterns are therefore compared by their source expression.
type Matcher interface {
	Match(symbol any) bool
	Kind() MatcherKind
	Key() string
	String() string
	sealed()
}

// Literal matches a symbol equal to a string, integer or boolean value.
// Integer kinds are normalised to int64; values of different kinds never match
// each other, so Lit(1) does not match "1" nor true.
type Literal struct {
	value any // string | int64 | bool
}

// Lit builds a Literal and panics if v is not a string, integer or boolean.
func Lit(v any) Literal {
	n, ok := normalizeLiteral(v)
	if !ok {
		panic(&MatcherTypeError{Value: v})
	}
	return Literal{value: n}
}

// Value returns the literal value (string, int64 or bool).
func (l Literal) Value() any { return l.value }

func (l Literal) Match(symbol any) bool {
	n, ok := normalizeLiteral(symbol)
	if !ok {
		return false
	}
	return n == l.value
}

func (l Literal) Kind() MatcherKind { return KindLiteral }

func (l Literal) Key() string {
	switch v := l.value.(type) {
	case string:
		return "s:" + strconv.Quote(v)
	case int64:
		return "i:" + strconv.FormatInt(v, 10)
	case bool:
		return "b:" + strconv.FormatBool(v)
	}
	return "?"
}

func (l Literal) String() string { return fmt.Sprint(l.value) }

func (Literal) sealed() {}

// Pattern matches when its regular expression matches at the start of the
// symbol's string form. It is a prefix match, not a full-string match:
// `\d` matches "12abc".
type Pattern struct {
	re       *regexp.Regexp
	anchored *regexp.Regexp
}

// Regex compiles expr into a Pattern.
func Regex(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return newPattern(re), nil
}

// MustPattern is like Regex but panics on an invalid expression.
func MustPattern(expr string) Pattern {
	p, err := Regex(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func newPattern(re *regexp.Regexp) Pattern {
	// \A pins the match to the beginning of the text regardless of (?m).
	return Pattern{re: re, anchored: regexp.MustCompile(`\A(?:` + re.String() + `)`)}
}

// Regexp returns the compiled expression as supplied by the caller.
func (p Pattern) Regexp() *regexp.Regexp { return p.re }

func (p Pattern) Match(symbol any) bool {
	if symbol == nil || p.anchored == nil {
		return false
	}
	return p.anchored.MatchString(symbolString(symbol))
}

func (p Pattern) Kind() MatcherKind { return KindPattern }

func (p Pattern) Key() string { return "re:" + p.re.String() }

func (p Pattern) String() string { return "/" + p.re.String() + "/" }

func (Pattern) sealed() {}

// AnyOf matches when any of its children matches, evaluated in order.
// An empty AnyOf never matches. Children may themselves be AnyOf.
type AnyOf struct {
	children []Matcher
}

// Any builds a disjunction from already constructed matchers.
func Any(children ...Matcher) AnyOf {
	return AnyOf{children: append([]Matcher(nil), children...)}
}

// Children returns the ordered child matchers.
func (a AnyOf) Children() []Matcher {
	return append([]Matcher(nil), a.children...)
}

func (a AnyOf) Match(symbol any) bool {
	for _, c := range a.children {
		if c.Match(symbol) {
			return true
		}
	}
	return false
}

func (a AnyOf) Kind() MatcherKind { return KindAnyOf }

func (a AnyOf) Key() string {
	keys := make([]string, len(a.children))
	for i, c := range a.children {
		keys[i] = c.Key()
	}
	return "any[" + strings.Join(keys, ",") + "]"
}

func (a AnyOf) String() string {
	parts := make([]string, len(a.children))
	for i, c := range a.children {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (AnyOf) sealed() {}

// NewMatcher builds a Matcher from a raw value.
//
// Accepted values: string, any integer kind, bool, *regexp.Regexp, an existing
// Matcher, or a slice of those ([]any, []string, []int, []bool, []Matcher)
// which becomes an AnyOf. Everything else, including nil and a bad leaf inside
// a slice, fails with a *MatcherTypeError.
func NewMatcher(raw any) (Matcher, error) {
	switch v := raw.(type) {
	case Matcher:
		return v, nil
	case *regexp.Regexp:
		if v == nil {
			return nil, &MatcherTypeError{Value: raw}
		}
		return newPattern(v), nil
	case []any:
		return anyOfFrom(v)
	case []Matcher:
		return Any(v...), nil
	case []string:
		return anyOfFrom(toAnySlice(v))
	case []int:
		return anyOfFrom(toAnySlice(v))
	case []bool:
		return anyOfFrom(toAnySlice(v))
	}

	n, ok := normalizeLiteral(raw)
	if !ok {
		return nil, &MatcherTypeError{Value: raw}
	}
	return Literal{value: n}, nil
}

func anyOfFrom(items []any) (Matcher, error) {
	children := make([]Matcher, 0, len(items))
	for _, item := range items {
		m, err := NewMatcher(item)
		if err != nil {
			return nil, err
		}
		children = append(children, m)
	}
	return AnyOf{children: children}, nil
}

func toAnySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// normalizeLiteral maps supported literal values to string, int64 or bool.
// Unsigned values above math.MaxInt64 have no int64 form and are rejected.
func normalizeLiteral(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return x, true
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return nil, false
		}
		return int64(x), true
	}
	return nil, false
}

func symbolString(symbol any) string {
	if s, ok := symbol.(string); ok {
		return s
	}
	return fmt.Sprint(symbol)
}
