package frame

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// FromArrow converts an Arrow record batch into a Table.
//
// Integer and boolean arrays map to the plain dtypes when they hold no nulls
// and to the nullable dtypes otherwise. Float nulls become NaN. Dictionary
// arrays become categorical columns and string arrays become object columns.
// Any other Arrow type is a ValueError.
func FromArrow(rec arrow.Record) (*Table, error) {
	cols := make([]*Column, 0, int(rec.NumCols()))
	for i := 0; i < int(rec.NumCols()); i++ {
		col, err := columnFromArrow(rec.ColumnName(i), rec.Column(i))
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return NewTable(cols...)
}

func columnFromArrow(name string, arr arrow.Array) (*Column, error) {
	n := arr.Len()
	hasNulls := arr.NullN() > 0

	switch arr.DataType().ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		dt := DType{Kind: KindInt, Bits: arr.DataType().(arrow.FixedWidthDataType).BitWidth(), Unsigned: isUnsigned(arr.DataType().ID())}
		ints := make([]int64, n)
		var valid []bool
		if hasNulls {
			dt.Kind = KindNullableInt
			valid = make([]bool, n)
		}
		for j := 0; j < n; j++ {
			if arr.IsNull(j) {
				continue
			}
			ints[j] = arrowInt(arr, j)
			if valid != nil {
				valid[j] = true
			}
		}
		return &Column{label: L(name), dtype: dt, n: n, ints: ints, valid: valid}, nil

	case arrow.FLOAT32, arrow.FLOAT64:
		dt := Float64
		if arr.DataType().ID() == arrow.FLOAT32 {
			dt = Float32
		}
		floats := make([]float64, n)
		for j := 0; j < n; j++ {
			if arr.IsNull(j) {
				floats[j] = nan
				continue
			}
			switch a := arr.(type) {
			case *array.Float32:
				floats[j] = float64(a.Value(j))
			case *array.Float64:
				floats[j] = a.Value(j)
			}
		}
		return &Column{label: L(name), dtype: dt, n: n, floats: floats}, nil

	case arrow.BOOL:
		a := arr.(*array.Boolean)
		bools := make([]bool, n)
		dt := Bool
		var valid []bool
		if hasNulls {
			dt = Boolean
			valid = make([]bool, n)
		}
		for j := 0; j < n; j++ {
			if a.IsNull(j) {
				continue
			}
			bools[j] = a.Value(j)
			if valid != nil {
				valid[j] = true
			}
		}
		return &Column{label: L(name), dtype: dt, n: n, bools: bools, valid: valid}, nil

	case arrow.NULL:
		return &Column{label: L(name), dtype: Object, n: n, objects: make([]any, n)}, nil

	case arrow.STRING, arrow.LARGE_STRING:
		objs := make([]any, n)
		for j := 0; j < n; j++ {
			if arr.IsNull(j) {
				continue
			}
			objs[j] = arr.ValueStr(j)
		}
		return &Column{label: L(name), dtype: Object, n: n, objects: objs}, nil

	case arrow.DICTIONARY:
		d := arr.(*array.Dictionary)
		dict := d.Dictionary()
		cats := make([]any, dict.Len())
		for k := range cats {
			v, err := arrowScalar(dict, k)
			if err != nil {
				return nil, err
			}
			cats[k] = v
		}
		codes := make([]int32, n)
		for j := 0; j < n; j++ {
			if d.IsNull(j) {
				codes[j] = -1
				continue
			}
			codes[j] = int32(d.GetValueIndex(j))
		}
		return &Column{label: L(name), dtype: Category, n: n, codes: codes, categories: cats}, nil
	}
	return nil, errors.NewValueErrorf("FromArrow", "column %q has unsupported arrow type %s", name, arr.DataType())
}

func isUnsigned(id arrow.Type) bool {
	switch id {
	case arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return true
	}
	return false
}

func arrowInt(arr arrow.Array, j int) int64 {
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(j))
	case *array.Int16:
		return int64(a.Value(j))
	case *array.Int32:
		return int64(a.Value(j))
	case *array.Int64:
		return a.Value(j)
	case *array.Uint8:
		return int64(a.Value(j))
	case *array.Uint16:
		return int64(a.Value(j))
	case *array.Uint32:
		return int64(a.Value(j))
	case *array.Uint64:
		return int64(a.Value(j))
	}
	return 0
}

// arrowScalar reads a dictionary value.
func arrowScalar(arr arrow.Array, j int) (any, error) {
	switch a := arr.(type) {
	case *array.String:
		return a.Value(j), nil
	case *array.LargeString:
		return a.Value(j), nil
	case *array.Float64:
		return a.Value(j), nil
	case *array.Float32:
		return float64(a.Value(j)), nil
	case *array.Boolean:
		return a.Value(j), nil
	}
	switch arr.DataType().ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return arrowInt(arr, j), nil
	}
	return nil, errors.NewValueErrorf("FromArrow", "unsupported dictionary value type %s", arr.DataType())
}
