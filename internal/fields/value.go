package fields

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// isAbsent reports if the value was not supplied.
func isAbsent(v any) bool {
	return v == nil
}

// truthy mirrors the loose notion of a "set" value used by the length checks.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0 && !math.IsNaN(val)
	case int:
		return val != 0
	case int64:
		return val != 0
	case json.Number:
		return val.String() != "0"
	}
	return true
}

// Stringify renders a decoded JSON value as text. Numbers never use exponent
// form, so 1500000 stays "1500000".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		if f, err := val.Float64(); err == nil && strings.ContainsAny(val.String(), "eE") {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return val.String()
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, Stringify(p))
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// sameValue compares two raw values the way identifiers coming from JSON are compared.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			if _, isBool := a.(bool); !isBool {
				return fa == fb
			}
		}
	}
	return Stringify(a) == Stringify(b)
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if sameValue(item, v) {
			return true
		}
	}
	return false
}
