package alert

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Event is an open-ended alert payload. Values may be strings, numbers or
// nested objects; no key is mandatory.
type Event map[string]any

// Clone returns a shallow copy of e. A nil event clones to an empty one.
func (e Event) Clone() Event {
	out := make(Event, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// String returns the value under key formatted for display, or "" when absent.
func (e Event) String(key string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return ""
	}
	return FormatValue(v)
}

// Message returns the event's message, falling back to error_message.
func (e Event) Message() string {
	if m := e.String("message"); m != "" {
		return m
	}
	return e.String("error_message")
}

// Keys returns the keys of e in a stable order: "message" first, the rest sorted.
func (e Event) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "message" {
			return keys[j] != "message"
		}
		if keys[j] == "message" {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

// IsNested reports whether v renders as a structured block rather than a scalar.
func IsNested(v any) bool {
	switch v.(type) {
	case map[string]any, Event, []any, []string, []map[string]any:
		return true
	}
	return false
}

// FormatValue renders v for display; nested values become compact JSON.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	if IsNested(v) {
		b, err := json.Marshal(v)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// FormatValueIndent renders nested values as indented JSON.
func FormatValueIndent(v any) string {
	if IsNested(v) {
		if b, err := json.MarshalIndent(v, "", "  "); err == nil {
			return string(b)
		}
	}
	return FormatValue(v)
}

// Humanize turns a snake_case key into a Title Case label ("error_code" -> "Error Code").
func Humanize(key string) string {
	parts := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, p := range parts {
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}
