package format

import (
	"strings"

	"github.com/kart-io/alerthub/pkg/alert"
)

// Route looks up a destination in a nested routing table shaped as
// service -> kind -> action. Missing levels fall back to the "all" action,
// then to the service's "error" routes, then to the top-level "general" entry.
func Route(table map[string]any, service string, kind alert.Kind, action string) (any, bool) {
	if len(table) == 0 {
		return nil, false
	}
	service = strings.ToLower(orDefault(service, "hotel"))
	action = strings.ToLower(orDefault(action, "all"))

	if byKind := asMap(table[service]); byKind != nil {
		for _, k := range kindKeys(kind) {
			if v, ok := pick(asMap(byKind[k]), action); ok {
				return v, true
			}
		}
		if kind != alert.KindError {
			if v, ok := pick(asMap(byKind[string(alert.KindError)]), action); ok {
				return v, true
			}
		}
	}
	if v, ok := table["general"]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func pick(m map[string]any, action string) (any, bool) {
	if m == nil {
		return nil, false
	}
	if v, ok := m[action]; ok && v != nil {
		return v, true
	}
	if v, ok := m["all"]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// warn routes may be keyed "warning" as well.
func kindKeys(kind alert.Kind) []string {
	if kind == alert.KindWarn {
		return []string{"warn", "warning"}
	}
	return []string{string(kind)}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
