package booster

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// Param is one training parameter.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered parameter list. A key may repeat; eval_metric uses
// repetition to name several metrics, every other key reads its last value.
type Params []Param

// ParamsFromMap converts a map to Params with keys in sorted order.
func ParamsFromMap(m map[string]any) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Params, 0, len(keys))
	for _, k := range keys {
		out = append(out, Param{Key: k, Value: m[k]})
	}
	return out
}

// ParseParams accepts map[string]any, map[string]string, Params, []Param or
// [][2]any (key/value pairs) and returns a copy as Params. nil yields empty Params.
func ParseParams(v any) (Params, error) {
	switch p := v.(type) {
	case nil:
		return Params{}, nil
	case Params:
		return p.Clone(), nil
	case []Param:
		return Params(p).Clone(), nil
	case map[string]any:
		return ParamsFromMap(p), nil
	case map[string]string:
		m := make(map[string]any, len(p))
		for k, s := range p {
			m[k] = s
		}
		return ParamsFromMap(m), nil
	case [][2]any:
		out := make(Params, 0, len(p))
		for i, kv := range p {
			key, ok := kv[0].(string)
			if !ok {
				return nil, errors.NewValidationError("params", fmt.Sprintf("key at position %d is not a string", i), kv[0])
			}
			out = append(out, Param{Key: key, Value: kv[1]})
		}
		return out, nil
	}
	return nil, errors.NewValidationError("params", "unsupported parameter container", fmt.Sprintf("%T", v))
}

// Clone returns a copy of the list.
func (p Params) Clone() Params {
	return append(Params(nil), p...)
}

// Get returns the last value set for key.
func (p Params) Get(key string) (any, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return nil, false
}

// Has reports whether key is set.
func (p Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Without returns a copy with every entry for the given keys removed.
func (p Params) Without(keys ...string) Params {
	out := make(Params, 0, len(p))
	for _, kv := range p {
		drop := false
		for _, k := range keys {
			if kv.Key == k {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, kv)
		}
	}
	return out
}

// With returns a copy where key is set to value, replacing earlier entries.
func (p Params) With(key string, value any) Params {
	return append(p.Without(key), Param{Key: key, Value: value})
}

// Float reads key as a float, returning def when unset.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p.Get(key)
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, errors.NewValidationError(key, "expected a number", v)
		}
		return f, nil
	}
	return 0, errors.NewValidationError(key, "expected a number", v)
}

// Int reads key as an integer, returning def when unset.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p.Get(key)
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x == float64(int(x)) {
			return int(x), nil
		}
	case string:
		n, err := strconv.Atoi(x)
		if err == nil {
			return n, nil
		}
	}
	return 0, errors.NewValidationError(key, "expected an integer", v)
}

// String reads key as a string, returning def when unset.
func (p Params) String(key, def string) (string, error) {
	v, ok := p.Get(key)
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.NewValidationError(key, "expected a string", v)
	}
	return s, nil
}

// EvalMetrics collects every eval_metric entry in order. Each entry may be a
// string or a list of strings; duplicates are dropped.
func (p Params) EvalMetrics() ([]string, error) {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, kv := range p {
		if kv.Key != "eval_metric" {
			continue
		}
		names, err := StringList(kv.Value)
		if err != nil {
			return nil, errors.NewValidationError("eval_metric", "expected a string or a list of strings", kv.Value)
		}
		for _, n := range names {
			add(n)
		}
	}
	return out, nil
}

// StringList accepts a string, []string or []any of strings.
func StringList(v any) ([]string, error) {
	switch x := v.(type) {
	case string:
		return []string{x}, nil
	case []string:
		return append([]string(nil), x...), nil
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, errors.Newf("element %d is %T, not a string", i, e)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, errors.Newf("unsupported type %T", v)
}
