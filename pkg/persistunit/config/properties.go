package config

import (
	"strconv"
	"time"
)

// Properties gives typed, defaulting access to free-form unit properties.
// Accessors return defaultVal when the key is missing or the value has a
// type that cannot be converted without loss.
type Properties struct {
	data map[string]any
}

// NewProperties wraps data. A nil map yields empty properties.
func NewProperties(data map[string]any) Properties {
	if data == nil {
		data = make(map[string]any)
	}
	return Properties{data: data}
}

// String returns the string value for key.
func (p Properties) String(key, defaultVal string) string {
	if s, ok := p.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key. The strings "true" and "false"
// are accepted as well, since environment-substituted YAML often quotes them.
func (p Properties) Bool(key string, defaultVal bool) bool {
	switch v := p.data[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// Int returns the integer value for key.
// Whole float64 values (as decoded from JSON) are accepted.
func (p Properties) Int(key string, defaultVal int) int {
	switch v := p.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return defaultVal
}

// Duration returns the duration value for key.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
//   - time.Duration: used directly
func (p Properties) Duration(key string, defaultVal time.Duration) time.Duration {
	switch v := p.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case time.Duration:
		return v
	}
	return defaultVal
}

// StringSlice returns the string slice for key. A []any is accepted only
// if every element is a string.
func (p Properties) StringSlice(key string, defaultVal []string) []string {
	switch v := p.data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// Has returns true if the key is present.
func (p Properties) Has(key string) bool {
	_, ok := p.data[key]
	return ok
}

// Raw returns the underlying map. It must not be modified.
func (p Properties) Raw() map[string]any {
	return p.data
}
