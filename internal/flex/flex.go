// Package flex normalizes the shape-shifting values found in the table
// exports. The same logical field may arrive as a bare number, a numeric
// string, or a {"Hash": ...} / {"Value": ...} wrapper object, and hash
// numerals can exceed float64's exact integer range, so callers must decode
// documents with json.Decoder.UseNumber and route every read through one of
// the typed accessors below.
package flex

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var intRe = regexp.MustCompile(`^-?\d+$`)

// Hash extracts a content address: a {"Hash": ...} wrapper is unwrapped
// first, then an integer numeral is rendered as its decimal string and a
// non-empty trimmed string is taken as-is.
func Hash(v any) (string, bool) {
	if m, ok := v.(map[string]any); ok {
		inner, exists := m["Hash"]
		if !exists {
			return "", false
		}
		v = inner
	}
	switch t := v.(type) {
	case json.Number:
		s := t.String()
		if intRe.MatchString(s) {
			return s, true
		}
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	}
	return "", false
}

// Float extracts a numeric value, unwrapping a {"Value": ...} wrapper.
func Float(v any) (float64, bool) {
	if m, ok := v.(map[string]any); ok {
		v = m["Value"]
	}
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Int extracts an integer from a number or a decimal string. Non-integral
// numbers are rejected rather than truncated.
func Int(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		n, err := strconv.ParseInt(t.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case string:
		s := strings.TrimSpace(t)
		if !intRe.MatchString(s) {
			return 0, false
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Str accepts only a plain string value.
func Str(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Custom accepts a plain string or a {"Value": <string>} wrapper; used for
// the trigger/custom string fields on narrative nodes.
func Custom(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if m, ok := v.(map[string]any); ok {
		if s, ok := m["Value"].(string); ok {
			return s, true
		}
	}
	return "", false
}

// Bool accepts only a plain boolean.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}
