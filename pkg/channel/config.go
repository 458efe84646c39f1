package channel

import (
	"strconv"
	"strings"
	"time"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/errors"
)

// Keys shared by every channel configuration. They are the layered keys the
// resolver fills from the hub's global settings.
const (
	KeyService     = "service"
	KeyEnvironment = "environment"
	KeyBeauty      = "beauty"
	KeySpecific    = "specific"
	KeyStrictMode  = "strict_mode"
	KeyTimeout     = "timeout"
)

// Hard-coded defaults, the lowest configuration layer.
const (
	DefaultService     = "hotel"
	DefaultEnvironment = "STAGING"
)

// Config is a channel's configuration: the layered keys above plus any
// adapter-specific settings (webhook_url, bot_token, ...).
type Config map[string]any

// Clone returns a shallow copy of c.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Has reports whether key is present with a non-nil value.
func (c Config) Has(key string) bool {
	v, ok := c[key]
	return ok && v != nil
}

// String returns the string under key, or "" when absent or not a scalar.
func (c Config) String(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case int, int64, float64, bool:
		return strings.TrimSpace(alert.FormatValue(v))
	}
	return ""
}

// StringOr returns String(key), or def when empty.
func (c Config) StringOr(key, def string) string {
	if s := c.String(key); s != "" {
		return s
	}
	return def
}

// Bool returns the boolean under key, or def when absent or unparsable.
func (c Config) Bool(key string, def bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int returns the integer under key, or def when absent or unparsable.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Duration returns the duration under key. Plain numbers are milliseconds;
// strings may be Go durations ("5s") or milliseconds ("5000").
func (c Config) Duration(key string, def time.Duration) time.Duration {
	switch v := c[key].(type) {
	case time.Duration:
		if v > 0 {
			return v
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	case int64:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	case float64:
		if v > 0 {
			return time.Duration(v * float64(time.Millisecond))
		}
	case string:
		s := strings.TrimSpace(v)
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

// Timeout returns the per-channel request timeout.
func (c Config) Timeout(def time.Duration) time.Duration {
	return c.Duration(KeyTimeout, def)
}

// Map returns the nested object under key, or nil.
func (c Config) Map(key string) map[string]any {
	switch v := c[key].(type) {
	case map[string]any:
		return v
	case Config:
		return v
	}
	return nil
}

// Specific returns the channel's field allow-list.
func (c Config) Specific() []alert.FieldSpec {
	return alert.ParseFieldSpecs(c[KeySpecific])
}

// Common returns the typed view of the layered keys.
func (c Config) Common() Common {
	return Common{
		Service:     c.StringOr(KeyService, DefaultService),
		Environment: c.StringOr(KeyEnvironment, DefaultEnvironment),
		Beauty:      c.Bool(KeyBeauty, true),
		Specific:    c.Specific(),
		StrictMode:  c.Bool(KeyStrictMode, false),
	}
}

// Require returns a configuration error naming every key in keys that is empty.
func (c Config) Require(channelType string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if c.String(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingConfig(channelType, missing...)
	}
	return nil
}

// Common holds the settings every channel inherits from the hub.
type Common struct {
	Service     string
	Environment string
	Beauty      bool
	Specific    []alert.FieldSpec
	StrictMode  bool
}

// Defaults returns the hard-coded default layer.
func Defaults() Common {
	return Common{
		Service:     DefaultService,
		Environment: DefaultEnvironment,
		Beauty:      true,
	}
}

// Config renders c as a configuration layer.
func (c Common) Config() Config {
	specific := make([]alert.FieldSpec, len(c.Specific))
	copy(specific, c.Specific)
	return Config{
		KeyService:     c.Service,
		KeyEnvironment: c.Environment,
		KeyBeauty:      c.Beauty,
		KeySpecific:    specific,
		KeyStrictMode:  c.StrictMode,
	}
}
