package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The To* helpers convert loosely typed JSON values into Go scalars.
// They are total: anything that cannot be converted yields the default.

// ToFloat converts numbers, numeric strings and booleans to float64.
func ToFloat(v any, def float64) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return def
}

// ToInt converts v to an int, truncating fractional values toward zero.
func ToInt(v any, def int) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f, def)
		}
		return def
	case nil:
		return def
	}
	if f, ok := asNumber(v); ok {
		return floatToInt(f, def)
	}
	return def
}

// floatToInt truncates f, returning def when f is NaN or outside the int
// range.
func floatToInt(f float64, def int) int {
	if math.IsNaN(f) || f >= math.MaxInt || f < math.MinInt {
		return def
	}
	return int(f)
}

// ToBool follows JSON-ish truthiness: booleans as-is, numbers are true when
// non-zero, strings go through strconv.ParseBool.
func ToBool(v any, def bool) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false
		}
		return b
	case nil:
		return def
	}
	if f, ok := asNumber(v); ok {
		return f != 0
	}
	return def
}

// ToString returns v when it is a string. Numbers are formatted; anything
// else reports false.
func ToString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int, int64:
		return fmt.Sprint(x), true
	}
	return "", false
}

// IsNumber reports whether v is a numeric JSON scalar (bools included).
func IsNumber(v any) bool {
	if _, ok := v.(bool); ok {
		return true
	}
	_, ok := asNumber(v)
	return ok
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}
