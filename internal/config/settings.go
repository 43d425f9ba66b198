package config

import (
	"fmt"
	"strings"
)

// Settings is a string-keyed view over the configuration file, with nested
// tables flattened into dotted keys.
type Settings map[string]any

// Flatten converts a decoded TOML document into dotted keys.
func Flatten(doc map[string]any) Settings {
	out := Settings{}
	flattenInto(out, "", doc)
	return out
}

func flattenInto(out Settings, prefix string, doc map[string]any) {
	for key, val := range doc {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		if table, ok := val.(map[string]any); ok {
			flattenInto(out, name, table)
			continue
		}
		out[name] = val
	}
}

// String returns the value at key rendered as a string. Lists are joined
// with ", ", which keeps address lists parseable as one header value.
func (s Settings) String(key string) (string, bool) {
	val, ok := s[key]
	if !ok || val == nil {
		return "", false
	}
	switch v := val.(type) {
	case string:
		return v, true
	case []string:
		return strings.Join(v, ", "), true
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if str := strings.TrimSpace(fmt.Sprint(item)); str != "" {
				items = append(items, str)
			}
		}
		return strings.Join(items, ", "), true
	default:
		return fmt.Sprint(v), true
	}
}
