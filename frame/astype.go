package frame

import (
	"math"
	"strconv"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// Astype converts the column to dt.
//
// Conversions follow the usual dataframe semantics:
//   - to int: missing values are an error, floats are truncated
//   - to float: missing values become NaN
//   - to bool: missing values become false (a DataConversionWarning is emitted)
//   - to nullable int/float/bool: missing values are preserved
//   - to category: categories are the sorted distinct non-missing values
//   - to a sparse dtype: the column is converted to the inner dtype, then only
//     entries different from the default fill are stored
func (c *Column) Astype(dt DType) (*Column, error) {
	src := c.ToDense()
	if dt.Sparse {
		inner := dt.Dense()
		if !inner.validSparseInner() {
			return nil, errors.NewValueErrorf("Astype", "sparse arrays of dtype %s are not supported", inner)
		}
		dense, err := src.Astype(inner)
		if err != nil {
			return nil, err
		}
		values := make([]float64, dense.n)
		for i := range values {
			v, ok := dense.Float64At(i)
			if !ok {
				v = nan
			}
			values[i] = v
		}
		return SparseColumn(c.label, inner, values)
	}

	switch dt.Kind {
	case KindInt:
		return src.toInt(dt)
	case KindFloat:
		return src.toFloat(dt)
	case KindBool:
		return src.toBool(), nil
	case KindNullableInt:
		return src.toNullableInt(dt)
	case KindNullableFloat:
		return src.toNullableFloat(dt)
	case KindNullableBool:
		return src.toNullableBool()
	case KindCategorical:
		return src.toCategorical(), nil
	case KindObject:
		vals := make([]any, src.n)
		for i := range vals {
			vals[i] = src.Value(i)
		}
		return Objects(c.label, vals...), nil
	}
	return nil, errors.NewValueErrorf("Astype", "unknown dtype %s", dt)
}

// numericAt reads row i as a number, parsing strings. ok is false for missing rows.
func (c *Column) numericAt(i int) (float64, bool, error) {
	if c.IsMissing(i) {
		return nan, false, nil
	}
	v := c.Value(i)
	if s, isStr := v.(string); isStr {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, errors.NewValueErrorf("Astype", "could not convert string %q in column %q to a number", s, c.label.String())
		}
		return f, true, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false, errors.NewValueErrorf("Astype", "value %v in column %q is not numeric", v, c.label.String())
	}
	return f, true, nil
}

func (c *Column) toInt(dt DType) (*Column, error) {
	out := make([]int64, c.n)
	for i := range out {
		f, ok, err := c.numericAt(i)
		if err != nil {
			return nil, err
		}
		if !ok || math.IsInf(f, 0) {
			return nil, errors.NewValueErrorf("Astype", "cannot convert non-finite values (NA or inf) to integer in column %q", c.label.String())
		}
		out[i] = int64(f)
	}
	return intColumn(c.label, dt, out), nil
}

func (c *Column) toFloat(dt DType) (*Column, error) {
	out := make([]float64, c.n)
	for i := range out {
		f, ok, err := c.numericAt(i)
		if err != nil {
			return nil, err
		}
		if !ok {
			f = nan
		}
		if dt.Bits == 32 && !math.IsNaN(f) {
			f = float64(float32(f))
		}
		out[i] = f
	}
	return &Column{label: c.label, dtype: dt, n: c.n, floats: out}, nil
}

func (c *Column) toBool() *Column {
	out := make([]bool, c.n)
	coerced := 0
	for i := range out {
		if c.IsMissing(i) {
			coerced++
			continue
		}
		out[i] = truthy(c.Value(i))
	}
	if coerced > 0 {
		errors.Warn(errors.NewDataConversionWarning(c.dtype.String(), "bool",
			strconv.Itoa(coerced)+" missing values in column "+strconv.Quote(c.label.String())+" coerced to false"))
	}
	return &Column{label: c.label, dtype: Bool, n: c.n, bools: out}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return v != nil
}

func (c *Column) toNullableInt(dt DType) (*Column, error) {
	ints := make([]int64, c.n)
	valid := make([]bool, c.n)
	for i := range ints {
		f, ok, err := c.numericAt(i)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if f != math.Trunc(f) {
			return nil, errors.NewValueErrorf("Astype", "cannot safely cast non-equivalent float %v to %s", f, dt)
		}
		ints[i] = int64(f)
		valid[i] = true
	}
	return &Column{label: c.label, dtype: dt, n: c.n, ints: ints, valid: valid}, nil
}

func (c *Column) toNullableFloat(dt DType) (*Column, error) {
	floats := make([]float64, c.n)
	valid := make([]bool, c.n)
	for i := range floats {
		f, ok, err := c.numericAt(i)
		if err != nil {
			return nil, err
		}
		if ok {
			floats[i] = f
			valid[i] = true
		}
	}
	return &Column{label: c.label, dtype: dt, n: c.n, floats: floats, valid: valid}, nil
}

func (c *Column) toNullableBool() (*Column, error) {
	bools := make([]bool, c.n)
	valid := make([]bool, c.n)
	for i := range bools {
		if c.IsMissing(i) {
			continue
		}
		switch v := c.Value(i).(type) {
		case bool:
			bools[i] = v
		case int64, float64:
			f, _ := toFloat(v)
			if f != 0 && f != 1 {
				return nil, errors.NewValueErrorf("Astype", "need to pass bool-like values, got %v", v)
			}
			bools[i] = f == 1
		default:
			return nil, errors.NewValueErrorf("Astype", "need to pass bool-like values, got %v", v)
		}
		valid[i] = true
	}
	return &Column{label: c.label, dtype: Boolean, n: c.n, bools: bools, valid: valid}, nil
}

func (c *Column) toCategorical() *Column {
	if c.dtype.Kind == KindCategorical {
		return c
	}
	seen := make(map[any]struct{})
	var cats []any
	for i := 0; i < c.n; i++ {
		if c.IsMissing(i) {
			continue
		}
		v := c.Value(i)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			cats = append(cats, v)
		}
	}
	sortScalars(cats)
	index := make(map[any]int32, len(cats))
	for i, v := range cats {
		index[v] = int32(i)
	}
	codes := make([]int32, c.n)
	for i := range codes {
		if c.IsMissing(i) {
			codes[i] = -1
			continue
		}
		codes[i] = index[c.Value(i)]
	}
	return &Column{label: c.label, dtype: Category, n: c.n, codes: codes, categories: cats}
}
