package alert

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldSpec is one entry of an allow-list. It names an event field and
// optionally how formatters should label it.
type FieldSpec struct {
	Key      string `json:"key" yaml:"key"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	Emoji    string `json:"emoji,omitempty" yaml:"emoji,omitempty"`
	Markdown *bool  `json:"markdown,omitempty" yaml:"markdown,omitempty"`
}

// Field returns a FieldSpec for a bare field name.
func Field(key string) FieldSpec { return FieldSpec{Key: key} }

// Name returns the event key f refers to.
func (f FieldSpec) Name() string { return f.Key }

// Title returns the display label, defaulting to the humanized key.
func (f FieldSpec) Title() string {
	if f.Label != "" {
		return f.Label
	}
	return Humanize(f.Key)
}

// fieldFromMap accepts both key/field and label/title spellings. When both
// field and key are set, field names the event key.
func fieldFromMap(m map[string]any) FieldSpec {
	var f FieldSpec
	if s, ok := m["field"].(string); ok && s != "" {
		f.Key = s
	} else if s, ok := m["key"].(string); ok {
		f.Key = s
	}
	if s, ok := m["label"].(string); ok && s != "" {
		f.Label = s
	} else if s, ok := m["title"].(string); ok {
		f.Label = s
	}
	if s, ok := m["emoji"].(string); ok {
		f.Emoji = s
	}
	if b, ok := m["markdown"].(bool); ok {
		f.Markdown = &b
	}
	return f
}

func (f *FieldSpec) decode(raw any) error {
	switch v := raw.(type) {
	case string:
		*f = FieldSpec{Key: v}
	case map[string]any:
		*f = fieldFromMap(v)
	default:
		return fmt.Errorf("field spec must be a string or an object, got %T", raw)
	}
	return nil
}

// UnmarshalJSON accepts "name" or {"key"|"field": ..., "label"|"title": ...}.
func (f *FieldSpec) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return f.decode(raw)
}

// UnmarshalYAML accepts a scalar name or a mapping, like UnmarshalJSON.
func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return f.decode(raw)
}

// ParseFieldSpecs converts the loosely typed allow-list found in channel
// configuration into FieldSpecs. Entries that are neither strings nor objects
// are ignored.
func ParseFieldSpecs(v any) []FieldSpec {
	switch t := v.(type) {
	case nil:
		return nil
	case []FieldSpec:
		return t
	case []string:
		out := make([]FieldSpec, 0, len(t))
		for _, s := range t {
			out = append(out, FieldSpec{Key: s})
		}
		return out
	case []map[string]any:
		out := make([]FieldSpec, 0, len(t))
		for _, m := range t {
			out = append(out, fieldFromMap(m))
		}
		return out
	case []any:
		out := make([]FieldSpec, 0, len(t))
		for _, item := range t {
			var f FieldSpec
			if fs, ok := item.(FieldSpec); ok {
				out = append(out, fs)
				continue
			}
			if err := f.decode(item); err == nil {
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}

// FieldNames returns the non-empty keys named by specs, in order.
func FieldNames(specs []FieldSpec) []string {
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		if s.Key != "" {
			names = append(names, s.Key)
		}
	}
	return names
}
