package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/automata/internal/dto"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/dsl"
	"gopkg.in/yaml.v3"
)

// Decompile converts a blueprint back into its serialized form.
// Blueprints built with a custom splitter (dsl.Builder.SplitWith) cannot be
// represented and are rejected.
func Decompile(bp *dsl.Blueprint) (*dto.Definition, error) {
	if bp.Splitter != nil && bp.SplitterName == "" {
		return nil, fmt.Errorf("automaton %q uses a custom splitter", bp.Name)
	}

	def := &dto.Definition{
		Name:            bp.Name,
		Initial:         bp.Initial.Name,
		SplitterPattern: bp.SplitterPattern,
	}
	if bp.SplitterName != "chars" {
		def.Splitter = bp.SplitterName
	}

	for _, s := range bp.Table.States() {
		for _, r := range bp.Table.Rules(s) {
			t := dto.TransitionSpec{From: r.From.Name, To: r.To.Name}
			switch m := r.Matcher.(type) {
			case domain.Literal:
				t.On = m.Value()
			case domain.Pattern:
				t.Match = m.Regexp().String()
			case domain.AnyOf:
				t.Any = anyItems(m)
			}
			def.Transitions = append(def.Transitions, t)
		}
	}

	if bp.Outputs.Len() > 0 {
		def.Outputs = make(map[string]any, bp.Outputs.Len())
		for _, s := range bp.Outputs.States() {
			out, _ := bp.Outputs.Get(s)
			if !out.IsRaise() {
				def.Outputs[s.Name] = out.Value()
				continue
			}
			kind := ""
			if out.Kind() != nil {
				kind = out.Kind().Error()
			}
			def.Outputs[s.Name] = map[string]any{dto.RaiseKey: kind}
		}
	}
	return def, nil
}

func anyItems(a domain.AnyOf) []any {
	children := a.Children()
	items := make([]any, 0, len(children))
	for _, c := range children {
		switch m := c.(type) {
		case domain.Literal:
			items = append(items, m.Value())
		case domain.Pattern:
			items = append(items, map[string]any{"match": m.Regexp().String()})
		case domain.AnyOf:
			items = append(items, anyItems(m))
		}
	}
	return items
}

// Encode renders a blueprint as a definition document.
func Encode(bp *dsl.Blueprint, format string) ([]byte, error) {
	def, err := Decompile(bp)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(def, "", "  ")
	case FormatYAML, "":
		return yaml.Marshal(def)
	}
	return nil, fmt.Errorf("unsupported definition format %q", format)
}
