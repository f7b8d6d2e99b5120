package model

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are the inputs accepted for time columns, most specific first.
var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Parse converts a raw request string into the Go value stored in a column of this type.
func (t ColumnType) Parse(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	switch t {
	case ColumnInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case ColumnBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	case ColumnTime:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), nil
			}
		}
		return nil, fmt.Errorf("%q is not a timestamp (RFC3339 or YYYY-MM-DD)", raw)
	default:
		return raw, nil
	}
}

// Normalize coerces a stored value (from YAML, JSON or a driver) into the canonical
// Go type for the column: int64, bool, time.Time or string. ok is false for nil or
// values that cannot be coerced.
func (t ColumnType) Normalize(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch t {
	case ColumnInt:
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int32:
			return int64(n), true
		case int64:
			return n, true
		case uint64:
			return int64(n), true
		case float64:
			return int64(n), true
		}
	case ColumnBool:
		if b, ok := v.(bool); ok {
			return b, true
		}
	case ColumnTime:
		if ts, ok := v.(time.Time); ok {
			return ts.UTC(), true
		}
	default:
		if s, ok := v.(string); ok {
			return s, true
		}
		return fmt.Sprint(v), true
	}
	if s, ok := v.(string); ok {
		parsed, err := t.Parse(s)
		return parsed, err == nil
	}
	return nil, false
}

// Compare orders two values of this column type. Values that cannot be
// normalized sort before everything else, like NULLS FIRST.
func (t ColumnType) Compare(a, b any) int {
	na, okA := t.Normalize(a)
	nb, okB := t.Normalize(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	switch x := na.(type) {
	case int64:
		return cmp.Compare(x, nb.(int64))
	case bool:
		y := nb.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case time.Time:
		return x.Compare(nb.(time.Time))
	default:
		return strings.Compare(x.(string), nb.(string))
	}
}
