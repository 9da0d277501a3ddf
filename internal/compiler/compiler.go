package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/automata/internal/dto"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/dsl"
)

// Compile turns a parsed definition into a Blueprint.
func Compile(def *dto.Definition) (*dsl.Blueprint, error) {
	if def == nil {
		return nil, fmt.Errorf("nil definition")
	}

	b := dsl.New(def.Name)
	if def.Initial != "" {
		b.Initial(def.Initial)
	}
	if def.Splitter != "" || def.SplitterPattern != "" {
		b.SplitBy(def.Splitter, def.SplitterPattern)
	}

	for i, t := range def.Transitions {
		if t.From == "" || t.To == "" {
			return nil, fmt.Errorf("transition #%d: from and to are required", i)
		}
		matcher, err := transitionMatcher(t)
		if err != nil {
			return nil, fmt.Errorf("transition #%d (%s -> %s): %w", i, t.From, t.To, err)
		}
		b.On(t.From, matcher, t.To)
	}

	states := make([]string, 0, len(def.Outputs))
	for s := range def.Outputs {
		states = append(states, s)
	}
	sort.Strings(states)
	for _, s := range states {
		v := def.Outputs[s]
		if out, ok := raiseOutput(v); ok {
			v = out
		}
		b.Output(s, v)
	}

	return b.Build()
}

func transitionMatcher(t dto.TransitionSpec) (any, error) {
	set := 0
	if t.On != nil {
		set++
	}
	if t.Match != "" {
		set++
	}
	if t.Any != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of on, match or any is required")
	}

	switch {
	case t.Match != "":
		return domain.Regex(t.Match)
	case t.Any != nil:
		return anyOf(t.Any)
	}
	// A raw list is handed over as-is so the table expands it.
	return t.On, nil
}

func anyOf(items []any) (domain.Matcher, error) {
	children := make([]domain.Matcher, 0, len(items))
	for _, item := range items {
		var (
			m   domain.Matcher
			err error
		)
		switch v := item.(type) {
		case map[string]any:
			expr, ok := v["match"].(string)
			if !ok {
				return nil, fmt.Errorf("any item %v: only {match: expr} maps are allowed", v)
			}
			m, err = domain.Regex(expr)
		case []any:
			m, err = anyOf(v)
		default:
			m, err = domain.NewMatcher(v)
		}
		if err != nil {
			return nil, err
		}
		children = append(children, m)
	}
	return domain.Any(children...), nil
}

// raiseOutput recognises {raise: kind} output values. An empty kind (or
// raise: true) yields a trap carrying only domain.ErrTrapState.
func raiseOutput(v any) (domain.Output, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return domain.Output{}, false
	}
	raw, ok := m[dto.RaiseKey]
	if !ok {
		return domain.Output{}, false
	}
	switch k := raw.(type) {
	case nil:
		return domain.Raise(nil), true
	case bool:
		return domain.Raise(nil), k
	case string:
		if k == "" {
			return domain.Raise(nil), true
		}
		return domain.Raise(errors.New(k)), true
	}
	return domain.Raise(fmt.Errorf("%v", raw)), true
}

// LoadFile reads, parses and compiles a definition file.
// When the definition has no name the file name (without extension) is used.
func LoadFile(path string) (*dsl.Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if def.Name == "" {
		base := filepath.Base(path)
		def.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	bp, err := Compile(def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bp, nil
}

// LoadDir compiles every .yaml, .yml and .json file of dir, in name order.
func LoadDir(dir string) ([]*dsl.Blueprint, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var out []*dsl.Blueprint
	for _, e := range entries {
		if e.IsDir() || !IsDefinitionFile(e.Name()) {
			continue
		}
		bp, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	return out, nil
}

// IsDefinitionFile reports whether name has a definition file extension.
func IsDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
