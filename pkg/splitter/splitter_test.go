package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/automata/pkg/domain"
)

func TestSplitters(t *testing.T) {
	re, err := NewRegex(`\s*;\s*`)
	require.NoError(t, err)

	tests := []struct {
		name     string
		splitter Splitter
		input    any
		want     []any
	}{
		{"chars", Chars{}, "1101", []any{"1", "1", "0", "1"}},
		{"chars multibyte", Chars{}, "aé", []any{"a", "é"}},
		{"chars empty", Chars{}, "", []any{}},
		{"whole", Whole{}, "hello world", []any{"hello world"}},
		{"whitespace", Whitespace{}, "  a\tb \n c ", []any{"a", "b", "c"}},
		{"whitespace empty", Whitespace{}, "   ", []any{}},
		{"comma keeps empty fields", Comma{}, "a,,b", []any{"a", "", "b"}},
		{"comma empty", Comma{}, "", []any{""}},
		{"regex", re, "a ; b;c", []any{"a", "b", "c"}},
		{"list of any", List{}, []any{1, "a", true}, []any{1, "a", true}},
		{"list of ints", List{}, []int{1, 0}, []any{1, 0}},
		{"array", List{}, [2]string{"x", "y"}, []any{"x", "y"}},
		{"func", Func(func(any) ([]any, error) { return []any{"z"}, nil }), 42, []any{"z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.splitter.Split(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitters_InputShape(t *testing.T) {
	tests := []struct {
		name     string
		splitter Splitter
		input    any
		msg      string
	}{
		{"chars given a list", Chars{}, []string{"1"}, "chars splitter: input must be a string, got []string"},
		{"whole given an int", Whole{}, 1, "whole splitter: input must be a string, got int"},
		{"whitespace given nil", Whitespace{}, nil, "whitespace splitter: input must be a string, got <nil>"},
		{"comma given a bool", Comma{}, true, "comma splitter: input must be a string, got bool"},
		{"list given a string", List{}, "10", "list splitter: input must be a list, got string"},
		{"list given nil", List{}, nil, "list splitter: input must be a list, got <nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.splitter.Split(tt.input)
			assert.ErrorIs(t, err, domain.ErrInputShape)
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestList_CopiesInput(t *testing.T) {
	in := []any{"a"}
	out, err := List{}.Split(in)
	require.NoError(t, err)

	out[0] = "b"
	assert.Equal(t, "a", in[0])
}

func TestByName(t *testing.T) {
	for name, want := range map[string]Splitter{
		"":           Chars{},
		"chars":      Chars{},
		"WHOLE":      Whole{},
		"words":      Whitespace{},
		"whitespace": Whitespace{},
		"csv":        Comma{},
		"list":       List{},
	} {
		got, err := ByName(name, "")
		require.NoError(t, err, name)
		assert.IsType(t, want, got, name)
	}

	got, err := ByName("regex", `-`)
	require.NoError(t, err)
	symbols, err := got.Split("a-b")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, symbols)

	_, err = ByName("regex", "")
	assert.Error(t, err)

	_, err = ByName("regex", "(")
	assert.Error(t, err)

	_, err = ByName("morse", "")
	assert.EqualError(t, err, `unknown splitter "morse"`)
}
