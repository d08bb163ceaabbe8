package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/jar-remapper/errors"
)

// Flat is an owner-independent substitution table. Keys are class,
// field or method names and string constants alike.
type Flat map[string]string

// Lookup returns the substitution for key. A nil table has none.
func (f Flat) Lookup(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f[key]
	return v, ok
}

// FlatFormat is a flat table file format.
type FlatFormat string

const (
	FlatYAML FlatFormat = "yaml"
	FlatJSON FlatFormat = "json" // comments and trailing commas allowed
)

// FlatFormatOf picks the format from a file extension.
func FlatFormatOf(path string) (FlatFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FlatYAML, nil
	case ".json", ".jsonc":
		return FlatJSON, nil
	}
	return "", errors.New(errors.PhaseLoad, errors.KindUnsupported).
		Path(path).
		Detail("flat mappings must be .yaml, .yml, .json or .jsonc").
		Build()
}

// ParseFlat decodes a flat table.
func ParseFlat(data []byte, format FlatFormat) (Flat, error) {
	var f Flat
	switch format {
	case FlatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, errors.Load("parse flat mappings", err)
		}
	case FlatJSON:
		if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
			return nil, errors.Load("parse flat mappings", err)
		}
	default:
		return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("flat format %q", format))
	}
	for k, v := range f {
		if k == "" || v == "" {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Value(k).
				Detail("flat mapping %q -> %q has an empty side", k, v).
				Build()
		}
	}
	if f == nil {
		f = Flat{}
	}
	return f, nil
}

// LoadFlat reads a flat table, choosing the format by extension.
func LoadFlat(path string) (Flat, error) {
	format, err := FlatFormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("read flat mappings %s", path), err)
	}
	f, err := ParseFlat(data, format)
	if err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			e.Path = append([]string{path}, e.Path...)
		}
		return nil, err
	}
	return f, nil
}

// Merge returns a table holding every entry of the inputs. Later tables
// override earlier ones.
func Merge(tables ...Flat) Flat {
	out := Flat{}
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}
