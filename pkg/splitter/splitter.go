package splitter

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/aretw0/automata/pkg/domain"
)

// Splitter produces the symbol sequence of an input value.
type Splitter interface {
	Split(input any) ([]any, error)
}

// Func adapts a plain function to the Splitter interface.
type Func func(input any) ([]any, error)

func (f Func) Split(input any) ([]any, error) { return f(input) }

// Chars yields one string symbol per rune.
type Chars struct{}

func (Chars) Split(input any) ([]any, error) {
	s, ok := input.(string)
	if !ok {
		return nil, shapeError("chars", "string", input)
	}
	out := make([]any, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out, nil
}

// Whole yields the input string as a single symbol.
type Whole struct{}

func (Whole) Split(input any) ([]any, error) {
	s, ok := input.(string)
	if !ok {
		return nil, shapeError("whole", "string", input)
	}
	return []any{s}, nil
}

// Whitespace splits on runs of white space, dropping empty fields.
type Whitespace struct{}

func (Whitespace) Split(input any) ([]any, error) {
	s, ok := input.(string)
	if !ok {
		return nil, shapeError("whitespace", "string", input)
	}
	return strings2any(strings.Fields(s)), nil
}

// Comma splits on every ",". Empty fields are kept, so "" yields one empty symbol.
type Comma struct{}

func (Comma) Split(input any) ([]any, error) {
	s, ok := input.(string)
	if !ok {
		return nil, shapeError("comma", "string", input)
	}
	return strings2any(strings.Split(s, ",")), nil
}

// Regex splits on matches of a regular expression.
type Regex struct {
	re *regexp.Regexp
}

// NewRegex compiles the separator expression.
func NewRegex(expr string) (*Regex, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid separator %q: %w", expr, err)
	}
	return &Regex{re: re}, nil
}

func (r *Regex) Split(input any) ([]any, error) {
	s, ok := input.(string)
	if !ok {
		return nil, shapeError("regex", "string", input)
	}
	return strings2any(r.re.Split(s, -1)), nil
}

// List accepts input that is already segmented: any slice or array.
// A string is rejected rather than treated as a sequence of characters.
type List struct{}

func (List) Split(input any) ([]any, error) {
	if v, ok := input.([]any); ok {
		return append([]any(nil), v...), nil
	}
	rv := reflect.ValueOf(input)
	if input == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, shapeError("list", "list", input)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// ByName returns the strategy registered under name.
// The "regex" strategy needs a separator expression in pattern.
func ByName(name, pattern string) (Splitter, error) {
	switch strings.ToLower(name) {
	case "", "chars", "string":
		return Chars{}, nil
	case "whole":
		return Whole{}, nil
	case "whitespace", "words":
		return Whitespace{}, nil
	case "comma", "csv":
		return Comma{}, nil
	case "list":
		return List{}, nil
	case "regex":
		if pattern == "" {
			return nil, fmt.Errorf("regex splitter requires a pattern")
		}
		return NewRegex(pattern)
	}
	return nil, fmt.Errorf("unknown splitter %q", name)
}

func shapeError(name, want string, v any) error {
	return &domain.InputShapeError{Splitter: name, Want: want, Value: v}
}

func strings2any(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
