package frame

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Label is a column label: either a flat scalar or a tuple of levels.
type Label struct {
	levels []any
}

// L builds a flat label. A Label argument is returned unchanged.
func L(v any) Label {
	if l, ok := v.(Label); ok {
		return l
	}
	return Label{levels: []any{normalizeScalar(v)}}
}

// Tuple builds a multi-level label.
func Tuple(levels ...any) Label {
	out := make([]any, len(levels))
	for i, v := range levels {
		out[i] = normalizeScalar(v)
	}
	return Label{levels: out}
}

// Levels returns a copy of the label levels.
func (l Label) Levels() []any {
	return append([]any(nil), l.levels...)
}

// IsMulti reports whether the label has more than one level.
func (l Label) IsMulti() bool { return len(l.levels) > 1 }

// String stringifies a flat label as-is and joins the levels of a multi-level
// label with a single space: ("a", 1) becomes "a 1". Integers are never padded.
func (l Label) String() string {
	parts := make([]string, len(l.levels))
	for i, v := range l.levels {
		parts[i] = FormatScalar(v)
	}
	return strings.Join(parts, " ")
}

// Equal compares levels pairwise. Levels that are not comparable with ==,
// such as slices, are compared by value.
func (l Label) Equal(o Label) bool {
	if len(l.levels) != len(o.levels) {
		return false
	}
	for i := range l.levels {
		if !reflect.DeepEqual(l.levels[i], o.levels[i]) {
			return false
		}
	}
	return true
}

// RangeLabels returns integer labels start, start+step, ... below stop.
func RangeLabels(start, stop, step int) []any {
	if step == 0 {
		return nil
	}
	var out []any
	for v := start; (step > 0 && v < stop) || (step < 0 && v > stop); v += step {
		out = append(out, int64(v))
	}
	return out
}

// FormatScalar renders a scalar the way labels and dummy column names show it.
// Floats always carry a fractional part ("1.0"), booleans are "True"/"False".
func FormatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) {
			return "nan"
		}
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

// normalizeScalar widens Go numeric types so that equal values compare equal.
func normalizeScalar(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
