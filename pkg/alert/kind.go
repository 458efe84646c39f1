// Package alert defines the event model shared by the hub and every channel
// adapter: the open-ended Event payload, its Kind, and the FieldSpec allow-list
// used by strict-mode filtering.
package alert

import (
	"fmt"
	"strings"
)

// Kind selects the tone (emoji, color, severity) of an alert.
type Kind string

const (
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarn    Kind = "warn"
	KindSuccess Kind = "success"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindError, KindInfo, KindWarn, KindSuccess}

// ParseKind converts s into a Kind. "warning" is accepted as KindWarn.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return KindError, nil
	case "info":
		return KindInfo, nil
	case "warn", "warning":
		return KindWarn, nil
	case "success":
		return KindSuccess, nil
	}
	return "", fmt.Errorf("unknown alert kind %q", s)
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindError, KindInfo, KindWarn, KindSuccess:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Emoji returns the emoji prefix used by chat formatters.
func (k Kind) Emoji() string {
	switch k {
	case KindError:
		return "🚨"
	case KindWarn:
		return "⚠️"
	case KindInfo:
		return "ℹ️"
	case KindSuccess:
		return "✅"
	default:
		return "📋"
	}
}

// Color returns the RGB color used by embed/attachment style formatters.
func (k Kind) Color() int {
	switch k {
	case KindError:
		return 0xe74c3c
	case KindWarn:
		return 0xf39c12
	case KindInfo:
		return 0x3498db
	case KindSuccess:
		return 0x27ae60
	default:
		return 0x95a5a6
	}
}

// HexColor returns Color formatted as "#rrggbb".
func (k Kind) HexColor() string {
	return fmt.Sprintf("#%06x", k.Color())
}

// Title returns a human readable label.
func (k Kind) Title() string {
	switch k {
	case KindError:
		return "Error"
	case KindWarn:
		return "Warning"
	case KindInfo:
		return "Info"
	case KindSuccess:
		return "Success"
	default:
		return "Alert"
	}
}
