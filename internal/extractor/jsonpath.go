package extractor

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// at walks into nested json arrays, returning nil as soon as an index is out
// of range or a value is not an array.
func at(value any, path ...int) any {
	current := value
	for _, idx := range path {
		list, ok := current.([]any)
		if !ok || idx < 0 || idx >= len(list) {
			return nil
		}
		current = list[idx]
	}
	return current
}

func list(value any) []any {
	out, _ := value.([]any)
	return out
}

// str stringifies scalar json values, arrays are joined by commas which is
// how nested single element label arrays are flattened.
func str(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = str(e)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

func integer(value any) (int, bool) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, err := v.Float64()
			if err != nil || f > math.MaxInt64 || f < math.MinInt64 {
				return 0, false
			}
			return int(f), true
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func isOne(value any) bool {
	n, ok := integer(value)
	return ok && n == 1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
