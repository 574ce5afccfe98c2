package evaluator

import (
	"encoding/json"
	"math"
)

// Normalize converts decoded JSON or YAML values into the value kinds CEL
// handles natively. Integral numbers become int64 so that "x % 2" works on
// inputs written as 4 or 4.0.
func Normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, item := range v {
			result[key] = Normalize(item)
		}

		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = Normalize(item)
		}

		return result
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}

		f, err := v.Float64()
		if err != nil {
			return v.String()
		}

		return Normalize(f)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}

		return v
	case float32:
		return Normalize(float64(v))
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}

		return v
	default:
		return v
	}
}
