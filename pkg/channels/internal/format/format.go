// Package format holds the rendering helpers shared by the channel adapters.
package format

import (
	"strings"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channel"
)

// Entry is one event field prepared for display.
type Entry struct {
	Key    string
	Title  string
	Emoji  string
	Value  any
	Nested bool
	// Code marks values that should be rendered as inline code.
	Code bool
}

// Text renders the value; nested values become compact JSON.
func (e Entry) Text() string { return alert.FormatValue(e.Value) }

// Pretty renders the value; nested values become indented JSON.
func (e Entry) Pretty() string { return alert.FormatValueIndent(e.Value) }

// Label returns the emoji-prefixed title.
func (e Entry) Label() string {
	if e.Emoji == "" {
		return e.Title
	}
	return e.Emoji + " " + e.Title
}

// Entries lists the fields of event in display order. When specs is
// non-empty the allow-listed fields come first, labelled as configured;
// the remaining keys follow only when rest is set. Without specs every key
// is listed, message first. Nil values are skipped.
func Entries(event alert.Event, specs []alert.FieldSpec, beauty, rest bool) []Entry {
	entries := make([]Entry, 0, len(event))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Key == "" {
			continue
		}
		seen[spec.Key] = true
		v, ok := event[spec.Key]
		if !ok || v == nil {
			continue
		}
		code := beauty
		if spec.Markdown != nil {
			code = *spec.Markdown
		}
		entries = append(entries, Entry{
			Key:    spec.Key,
			Title:  spec.Title(),
			Emoji:  spec.Emoji,
			Value:  v,
			Nested: alert.IsNested(v),
			Code:   code,
		})
	}
	if len(specs) > 0 && !rest {
		return entries
	}
	for _, key := range event.Keys() {
		v := event[key]
		if seen[key] || v == nil {
			continue
		}
		entries = append(entries, Entry{
			Key:    key,
			Title:  alert.Humanize(key),
			Value:  v,
			Nested: alert.IsNested(v),
			Code:   beauty,
		})
	}
	return entries
}

// Plain renders entries as "Title: value" lines.
func Plain(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Title+": "+e.Text())
	}
	return strings.Join(lines, "\n")
}

// Environment returns the environment label for a message: the event's own
// environment field when present, otherwise the channel's.
func Environment(event alert.Event, common channel.Common) string {
	if env := event.String(channel.KeyEnvironment); env != "" {
		return env
	}
	if common.Environment != "" {
		return common.Environment
	}
	return "UNKNOWN"
}

// Header is the one-line title most adapters put above the fields.
func Header(kind alert.Kind, env string) string {
	return kind.Emoji() + " " + env + " Environment Alert"
}
