package model

import "sort"

// Record is a TimeSync object (time, project, activity or user) as exchanged
// with the server. Only field names are interpreted locally.
type Record map[string]any

// String returns the string stored under key, or "" if absent or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Strings returns the list stored under key. A single string becomes a
// one-element list.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Int returns the integer stored under key.
func (r Record) Int(key string) (int, bool) {
	return AsInt(r[key])
}

// AsInt converts an integer value, including a JSON number decoded as float64.
func AsInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the record's keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
