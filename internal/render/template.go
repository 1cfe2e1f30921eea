// Package render expands the parameter placeholders the game client uses in
// skill and eidolon descriptions: #<index>[<format>]<%>, with a 1-based
// index into a numeric parameter list.
package render

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"hsrdb/internal/flex"
	"hsrdb/internal/jsonio"
)

var placeholderRe = regexp.MustCompile(`#(\d+)(?:\[([^\]]+)\])?(%)?`)

// Render substitutes every placeholder in template with its formatted
// parameter. A placeholder whose index falls outside params is left in the
// output untouched; surfacing the raw token beats guessing.
func Render(template string, params []float64) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(token string) string {
		m := placeholderRe.FindStringSubmatch(token)
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > len(params) {
			return token
		}
		value := params[idx-1]
		percent := m[3] == "%"
		if percent {
			value *= 100
		}
		out := formatNum(value, m[2])
		if percent {
			out += "%"
		}
		return out
	})
}

// Params extracts the numeric parameter list from a heterogeneous slice of
// bare numbers, numeric strings, and {"Value": ...} wrappers. Entries that
// are not numeric are skipped.
func Params(raw []any) []float64 {
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		if f, ok := flex.Float(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// ParamsFromJSON parses a serialized parameter array, as stored in the
// param_json columns. Anything unparseable yields nil.
func ParamsFromJSON(raw string) []float64 {
	if raw == "" {
		return nil
	}
	doc, err := jsonio.Decode([]byte(raw), "param_json")
	if err != nil {
		return nil
	}
	arr, ok := doc.([]any)
	if !ok {
		return nil
	}
	return Params(arr)
}

// formatNum renders one parameter value. A specifier starting with "i"
// (any case) rounds to an integer, "f<N>" is fixed-point with N decimals
// kept as-is (no digits means 0), and the default prints an integral value
// without a decimal point and anything else with up to four decimals,
// trailing zeros trimmed.
func formatNum(value float64, format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	switch {
	case strings.HasPrefix(format, "i"):
		return strconv.FormatInt(int64(math.Round(value)), 10)
	case strings.HasPrefix(format, "f"):
		digits := format[1:]
		end := 0
		for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
			end++
		}
		prec := 0
		if end > 0 {
			prec, _ = strconv.Atoi(digits[:end])
		}
		return strconv.FormatFloat(value, 'f', prec, 64)
	}
	if value == math.Trunc(value) && !math.IsInf(value, 0) {
		return strconv.FormatInt(int64(value), 10)
	}
	out := strconv.FormatFloat(value, 'f', 4, 64)
	out = strings.TrimRight(out, "0")
	out = strings.TrimRight(out, ".")
	return out
}
