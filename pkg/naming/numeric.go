package naming

import (
	"fmt"
	"strconv"
)

// NormalizeNumeric renders a code_numeric value as a string, collapsing
// integer-valued floats to integer strings: 213.0 -> "213", 213.9 -> "213.9"
// (spec.md §4.4). strconv.FormatFloat with precision -1 already produces the
// shortest representation that round-trips, which is exactly this rule.
func NormalizeNumeric(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", n)
	}
}
