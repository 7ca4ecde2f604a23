package httphandler

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// coerceAmount turns the "amount" field of a create request into a
// non-negative integer in the smallest currency unit. The value is rendered
// the way a JavaScript String() call would and its leading integer is taken,
// so 12.99 is 12, "42abc" is 42, [42] is 42 and 1e21 ("1e+21") is 1.
// Anything without a leading integer is 0, and so are negative results and
// values outside the int64 range.
func coerceAmount(v any) int64 {
	n := leadingInt(jsString(v))
	if n < 0 {
		return 0
	}
	return n
}

// jsString renders decoded JSON the way JavaScript's String() does, as far as
// leadingInt can tell the difference.
func jsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			// out of float64 range, which JavaScript reads as Infinity
			return ""
		}
		return formatNumber(f)
	case float64:
		return formatNumber(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = jsString(e)
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// formatNumber switches to exponent notation at the same magnitudes as
// JavaScript's Number#toString.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs >= 1e21 || (abs != 0 && abs < 1e-6) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// leadingInt parses an optional sign and the run of decimal digits that
// follows leading whitespace. It returns 0 when there are no digits.
func leadingInt(s string) int64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	i, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return i
}
