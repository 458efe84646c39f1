package alert

// Filter returns the copy of event a channel should receive.
//
// With strict disabled, or with an allow-list that names no usable field, the
// whole event passes through. Otherwise only the allow-listed keys present in
// event are kept. The input is never modified.
func Filter(event Event, specs []FieldSpec, strict bool) Event {
	if !strict {
		return event.Clone()
	}
	names := FieldNames(specs)
	if len(names) == 0 {
		return event.Clone()
	}
	out := make(Event, len(names))
	for _, name := range names {
		if v, ok := event[name]; ok {
			out[name] = v
		}
	}
	return out
}
