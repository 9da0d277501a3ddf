package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/automata/internal/dto"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Supported definition formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatFromPath guesses the format from a file extension. Anything that is
// not .json is treated as YAML.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes a definition document.
//
// The document is first read into a generic map and then decoded with
// mapstructure, so both formats share the same field names. JSON numbers are
// kept exact: integral values become int64, anything else is rejected later
// when used as a matcher.
func Parse(data []byte, format string) (*dto.Definition, error) {
	var raw map[string]any

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse definition (json): %w", err)
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse definition (yaml): %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}

	if raw == nil {
		return nil, fmt.Errorf("empty definition")
	}

	var def dto.Definition
	if err := mapstructure.Decode(Normalize(raw), &def); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}
	return &def, nil
}

// Normalize converts decoder-specific values into the plain types matchers
// and outputs understand.
func Normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = Normalize(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = Normalize(item)
		}
		return x
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	}
	return v
}
