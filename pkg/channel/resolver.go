package channel

// Resolve computes a channel's effective configuration from three layers:
// hard-coded defaults, the hub's global settings, then the channel's own
// settings. The most specific non-absent value wins. Neither input is
// modified.
func Resolve(global Common, cfg Config) Config {
	out := Defaults().Config()
	for k, v := range global.Config() {
		if isZeroLayerValue(v) {
			continue
		}
		out[k] = v
	}
	for k, v := range cfg {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// isZeroLayerValue reports whether a global setting was left unset and must
// not shadow the default underneath it. Booleans are always explicit.
func isZeroLayerValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}
