package frame

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

var nan = math.NaN()

// Column is a labeled, typed sequence of values. Exactly one of the storage
// slices is populated, selected by the dtype tag. Columns are immutable once
// built; conversions return new columns.
type Column struct {
	label Label
	dtype DType
	n     int

	ints   []int64   // KindInt, KindNullableInt
	floats []float64 // KindFloat, KindNullableFloat
	bools  []bool    // KindBool, KindNullableBool
	valid  []bool    // nullable kinds; nil means no missing values

	codes      []int32 // KindCategorical, -1 marks a missing entry
	categories []any

	objects []any // KindObject, nil marks a missing entry

	sparse *sparseData
}

// sparseData stores only the entries that differ from the fill value.
type sparseData struct {
	indices []int
	values  []float64
	fill    float64
}

func intColumn(label any, dt DType, vals []int64) *Column {
	return &Column{label: L(label), dtype: dt, n: len(vals), ints: vals}
}

// Int64s builds an int64 column.
func Int64s(label any, vals ...int64) *Column {
	return intColumn(label, Int64, append([]int64(nil), vals...))
}

// Int32s builds an int32 column.
func Int32s(label any, vals ...int32) *Column {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return intColumn(label, Int32, out)
}

// Int16s builds an int16 column.
func Int16s(label any, vals ...int16) *Column {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return intColumn(label, Int16, out)
}

// Int8s builds an int8 column.
func Int8s(label any, vals ...int8) *Column {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return intColumn(label, Int8, out)
}

// Uint8s builds a uint8 column, the dtype produced by GetDummies.
func Uint8s(label any, vals ...uint8) *Column {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return intColumn(label, Uint8, out)
}

// Float64s builds a float64 column. NaN marks a missing value.
func Float64s(label any, vals ...float64) *Column {
	return &Column{label: L(label), dtype: Float64, n: len(vals), floats: append([]float64(nil), vals...)}
}

// Float32s builds a float32 column. Values are widened for storage.
func Float32s(label any, vals ...float32) *Column {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return &Column{label: L(label), dtype: Float32, n: len(vals), floats: out}
}

// Bools builds a plain boolean column; it has no missing representation.
func Bools(label any, vals ...bool) *Column {
	return &Column{label: L(label), dtype: Bool, n: len(vals), bools: append([]bool(nil), vals...)}
}

// Objects builds an object column. nil entries are missing.
func Objects(label any, vals ...any) *Column {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = normalizeScalar(v)
	}
	return &Column{label: L(label), dtype: Object, n: len(vals), objects: out}
}

// NullableInts builds a nullable integer column of the given width; nil entries are missing.
func NullableInts(label any, bits int, vals ...*int64) *Column {
	ints := make([]int64, len(vals))
	valid := make([]bool, len(vals))
	for i, v := range vals {
		if v != nil {
			ints[i] = *v
			valid[i] = true
		}
	}
	return &Column{label: L(label), dtype: NullableInt(bits), n: len(vals), ints: ints, valid: valid}
}

// NullableFloats builds a nullable float column; nil entries are missing.
func NullableFloats(label any, bits int, vals ...*float64) *Column {
	floats := make([]float64, len(vals))
	valid := make([]bool, len(vals))
	for i, v := range vals {
		if v != nil {
			floats[i] = *v
			valid[i] = true
		}
	}
	return &Column{label: L(label), dtype: NullableFloat(bits), n: len(vals), floats: floats, valid: valid}
}

// NullableBools builds a nullable boolean column; nil entries are missing.
func NullableBools(label any, vals ...*bool) *Column {
	bools := make([]bool, len(vals))
	valid := make([]bool, len(vals))
	for i, v := range vals {
		if v != nil {
			bools[i] = *v
			valid[i] = true
		}
	}
	return &Column{label: L(label), dtype: Boolean, n: len(vals), bools: bools, valid: valid}
}

// NewCategorical builds a categorical column from integer codes into categories.
// Code -1 marks a missing entry; any other out-of-range code is a ValueError.
func NewCategorical(label any, codes []int32, categories []any) (*Column, error) {
	for i, c := range codes {
		if c < -1 || int(c) >= len(categories) {
			return nil, errors.NewValueErrorf("NewCategorical", "code %d at row %d is out of range for %d categories", c, i, len(categories))
		}
	}
	cats := make([]any, len(categories))
	for i, c := range categories {
		cats[i] = normalizeScalar(c)
	}
	return &Column{
		label:      L(label),
		dtype:      Category,
		n:          len(codes),
		codes:      append([]int32(nil), codes...),
		categories: cats,
	}, nil
}

// SparseColumn builds a sparse column of the given Int, Float or Bool dtype from
// dense values, using the dtype's default fill (0 for int and bool, NaN for float).
func SparseColumn(label any, inner DType, values []float64) (*Column, error) {
	return SparseColumnWithFill(label, inner, values, inner.sparseFill())
}

// SparseColumnWithFill is SparseColumn with an explicit fill value.
func SparseColumnWithFill(label any, inner DType, values []float64, fill float64) (*Column, error) {
	inner = inner.Dense()
	if !inner.validSparseInner() {
		return nil, errors.NewValueErrorf("SparseColumn", "sparse arrays of dtype %s are not supported", inner)
	}
	sp := &sparseData{fill: fill}
	for i, v := range values {
		if sameFloat(v, fill) {
			continue
		}
		sp.indices = append(sp.indices, i)
		sp.values = append(sp.values, v)
	}
	return &Column{label: L(label), dtype: SparseOf(inner), n: len(values), sparse: sp}, nil
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

// Label returns the column label.
func (c *Column) Label() Label { return c.label }

// DType returns the dtype tag.
func (c *Column) DType() DType { return c.dtype }

// Len returns the number of rows.
func (c *Column) Len() int { return c.n }

// Rename returns a shallow copy of the column under a new label.
func (c *Column) Rename(label any) *Column {
	out := *c
	out.label = L(label)
	return &out
}

// IsMissing reports whether row i holds a missing value.
func (c *Column) IsMissing(i int) bool {
	if c.dtype.Sparse {
		v := c.sparseAt(i)
		return math.IsNaN(v)
	}
	switch c.dtype.Kind {
	case KindFloat:
		return math.IsNaN(c.floats[i])
	case KindNullableInt, KindNullableFloat, KindNullableBool:
		if c.valid != nil && !c.valid[i] {
			return true
		}
		return c.dtype.Kind == KindNullableFloat && math.IsNaN(c.floats[i])
	case KindCategorical:
		return c.codes[i] < 0
	case KindObject:
		v := c.objects[i]
		if f, ok := v.(float64); ok {
			return math.IsNaN(f)
		}
		return v == nil
	}
	return false
}

// Value returns row i as a Go value: int64, float64, bool, a category value or
// an object. Missing entries of nullable, categorical and object columns are nil.
func (c *Column) Value(i int) any {
	if c.dtype.Sparse {
		v := c.sparseAt(i)
		switch c.dtype.Kind {
		case KindInt:
			return int64(v)
		case KindBool:
			return v != 0
		}
		return v
	}
	if c.dtype.Kind != KindFloat && c.IsMissing(i) {
		return nil
	}
	switch c.dtype.Kind {
	case KindInt, KindNullableInt:
		return c.ints[i]
	case KindFloat, KindNullableFloat:
		return c.floats[i]
	case KindBool, KindNullableBool:
		return c.bools[i]
	case KindCategorical:
		return c.categories[c.codes[i]]
	case KindObject:
		return c.objects[i]
	}
	return nil
}

// Float64At returns row i as a float. ok is false for missing entries and for
// values without a numeric reading (objects holding strings).
func (c *Column) Float64At(i int) (float64, bool) {
	if c.IsMissing(i) {
		return nan, false
	}
	if c.dtype.Sparse {
		return c.sparseAt(i), true
	}
	switch c.dtype.Kind {
	case KindInt, KindNullableInt:
		return float64(c.ints[i]), true
	case KindFloat, KindNullableFloat:
		return c.floats[i], true
	case KindBool, KindNullableBool:
		if c.bools[i] {
			return 1, true
		}
		return 0, true
	case KindCategorical:
		return float64(c.codes[i]), true
	case KindObject:
		return toFloat(c.objects[i])
	}
	return nan, false
}

func toFloat(v any) (float64, bool) {
	switch x := normalizeScalar(v).(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return nan, false
}

// Ints exposes the integer storage of Int and NullableInt columns. Read only.
func (c *Column) Ints() []int64 { return c.ints }

// Floats exposes the float storage of Float and NullableFloat columns. Read only.
func (c *Column) Floats() []float64 { return c.floats }

// BoolValues exposes the boolean storage of Bool and NullableBool columns. Read only.
func (c *Column) BoolValues() []bool { return c.bools }

// Valid exposes the validity mask of nullable columns; nil means all valid. Read only.
func (c *Column) Valid() []bool { return c.valid }

// Codes exposes the category codes of a categorical column. Read only.
func (c *Column) Codes() []int32 { return c.codes }

// Categories returns a copy of the categories of a categorical column.
func (c *Column) Categories() []any { return append([]any(nil), c.categories...) }

// SparseEntries exposes the stored positions and values of a sparse column
// together with its fill value. Read only.
func (c *Column) SparseEntries() (indices []int, values []float64, fill float64) {
	if c.sparse == nil {
		return nil, nil, 0
	}
	return c.sparse.indices, c.sparse.values, c.sparse.fill
}

func (c *Column) sparseAt(i int) float64 {
	sp := c.sparse
	k := sort.SearchInts(sp.indices, i)
	if k < len(sp.indices) && sp.indices[k] == i {
		return sp.values[k]
	}
	return sp.fill
}

// ToDense unwraps a sparse column into its dense dtype. Dense columns are returned as-is.
func (c *Column) ToDense() *Column {
	if !c.dtype.Sparse {
		return c
	}
	dt := c.dtype.Dense()
	out := &Column{label: c.label, dtype: dt, n: c.n}
	switch dt.Kind {
	case KindInt:
		out.ints = make([]int64, c.n)
		for i := range out.ints {
			out.ints[i] = int64(c.sparseAt(i))
		}
	case KindBool:
		out.bools = make([]bool, c.n)
		for i := range out.bools {
			out.bools[i] = c.sparseAt(i) != 0
		}
	default:
		out.floats = make([]float64, c.n)
		for i := range out.floats {
			out.floats[i] = c.sparseAt(i)
		}
	}
	return out
}

// Take returns the rows at the given positions.
func (c *Column) Take(rows []int) *Column {
	src := c.ToDense()
	out := &Column{label: c.label, dtype: src.dtype, n: len(rows), categories: src.categories}
	for _, r := range rows {
		switch {
		case src.ints != nil:
			out.ints = append(out.ints, src.ints[r])
		case src.floats != nil:
			out.floats = append(out.floats, src.floats[r])
		case src.bools != nil:
			out.bools = append(out.bools, src.bools[r])
		case src.codes != nil:
			out.codes = append(out.codes, src.codes[r])
		case src.objects != nil:
			out.objects = append(out.objects, src.objects[r])
		}
		if src.valid != nil {
			out.valid = append(out.valid, src.valid[r])
		}
	}
	return out
}
