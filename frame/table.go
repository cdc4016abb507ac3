// Package frame provides an in-memory columnar table with explicit dtype tags.
//
// A Table is an ordered list of labeled columns of equal length. Each column
// carries a DType tag (int, float, bool, categorical, nullable int/float/bool,
// sparse-wrapped int/float/bool, or object), so consumers can resolve how to
// read a column once, before touching any row.
//
//	t, err := frame.FromRecords([][]any{
//	    {1, 2.0, true},
//	    {2, 3.0, false},
//	}, "a", "b", "c")
package frame

import (
	"math"
	"sort"
	"strings"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// Table is an ordered collection of columns with a shared row count.
type Table struct {
	cols  []*Column
	nrows int
}

// NewTable builds a table from columns. All columns must have the same length.
func NewTable(cols ...*Column) (*Table, error) {
	t := &Table{cols: append([]*Column(nil), cols...)}
	for i, c := range cols {
		if c == nil {
			return nil, errors.NewValueErrorf("NewTable", "column %d is nil", i)
		}
		if i == 0 {
			t.nrows = c.Len()
			continue
		}
		if c.Len() != t.nrows {
			return nil, errors.NewValueErrorf("NewTable", "column %q has %d rows, expected %d", c.Label().String(), c.Len(), t.nrows)
		}
	}
	return t, nil
}

// MustTable is NewTable that panics on error. Intended for tests and examples.
func MustTable(cols ...*Column) *Table {
	t, err := NewTable(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a table from row-major records, inferring one dtype per
// column: all integers give int64, integers mixed with floats or nil give
// float64 (nil becomes NaN), all booleans give bool, booleans with nil or any
// string give object. Without labels the columns are labeled 0..n-1.
func FromRecords(rows [][]any, labels ...any) (*Table, error) {
	ncols := len(labels)
	if ncols == 0 && len(rows) > 0 {
		ncols = len(rows[0])
	}
	if len(labels) == 0 {
		labels = RangeLabels(0, ncols, 1)
	}
	columns := make([][]any, ncols)
	for r, row := range rows {
		if len(row) != ncols {
			return nil, errors.NewValueErrorf("FromRecords", "row %d has %d values, expected %d", r, len(row), ncols)
		}
		for j, v := range row {
			columns[j] = append(columns[j], v)
		}
	}
	cols := make([]*Column, ncols)
	for j := range columns {
		cols[j] = NewSeries(labels[j], columns[j])
	}
	return NewTable(cols...)
}

// NewSeries builds a single column from values, inferring its dtype the same
// way FromRecords does.
func NewSeries(label any, values []any) *Column {
	var nInt, nFloat, nBool, nOther, nMissing int
	for _, v := range values {
		switch x := normalizeScalar(v).(type) {
		case nil:
			nMissing++
		case int64:
			nInt++
		case float64:
			if math.IsNaN(x) {
				nMissing++
			} else {
				nFloat++
			}
		case bool:
			nBool++
		default:
			nOther++
		}
	}

	switch {
	case nOther > 0 || len(values) == nMissing:
		return Objects(label, values...)
	case nBool > 0 && (nInt > 0 || nFloat > 0 || nMissing > 0):
		return Objects(label, values...)
	case nBool > 0:
		out := make([]bool, len(values))
		for i, v := range values {
			out[i] = v.(bool)
		}
		return Bools(label, out...)
	case nFloat == 0 && nMissing == 0:
		out := make([]int64, len(values))
		for i, v := range values {
			out[i] = normalizeScalar(v).(int64)
		}
		return Int64s(label, out...)
	default:
		out := make([]float64, len(values))
		for i, v := range values {
			f, ok := toFloat(v)
			if !ok {
				f = nan
			}
			out[i] = f
		}
		return Float64s(label, out...)
	}
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in order.
func (t *Table) Columns() []*Column { return append([]*Column(nil), t.cols...) }

// Col returns the i-th column.
func (t *Table) Col(i int) *Column { return t.cols[i] }

// Labels returns the column labels in order.
func (t *Table) Labels() []Label {
	out := make([]Label, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.label
	}
	return out
}

// DTypes returns the column dtypes in order.
func (t *Table) DTypes() []DType {
	out := make([]DType, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.dtype
	}
	return out
}

// HasMultiIndex reports whether any column label has several levels.
func (t *Table) HasMultiIndex() bool {
	for _, c := range t.cols {
		if c.label.IsMulti() {
			return true
		}
	}
	return false
}

// Column looks a column up by label.
func (t *Table) Column(label any) (*Column, bool) {
	l := L(label)
	for _, c := range t.cols {
		if c.label.Equal(l) {
			return c, true
		}
	}
	return nil, false
}

// Select returns a table with the named columns in the given order.
func (t *Table) Select(labels ...any) (*Table, error) {
	cols := make([]*Column, 0, len(labels))
	for _, l := range labels {
		c, ok := t.Column(l)
		if !ok {
			return nil, errors.NewValueErrorf("Select", "column %q not found", L(l).String())
		}
		cols = append(cols, c)
	}
	return NewTable(cols...)
}

// Drop returns a table without the named columns.
func (t *Table) Drop(labels ...any) *Table {
	out := &Table{nrows: t.nrows}
	for _, c := range t.cols {
		drop := false
		for _, l := range labels {
			if c.label.Equal(L(l)) {
				drop = true
				break
			}
		}
		if !drop {
			out.cols = append(out.cols, c)
		}
	}
	return out
}

// With replaces the column carrying the same label, or appends it.
func (t *Table) With(col *Column) (*Table, error) {
	cols := t.Columns()
	replaced := false
	for i, c := range cols {
		if c.label.Equal(col.label) {
			cols[i] = col
			replaced = true
			break
		}
	}
	if !replaced {
		cols = append(cols, col)
	}
	return NewTable(cols...)
}

// WithLabels relabels the columns positionally. Labels may be Tuple values to
// build multi-level column labels.
func (t *Table) WithLabels(labels ...any) (*Table, error) {
	if len(labels) != len(t.cols) {
		return nil, errors.NewValueErrorf("WithLabels", "got %d labels for %d columns", len(labels), len(t.cols))
	}
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Rename(labels[i])
	}
	return NewTable(cols...)
}

// Take returns the rows at the given positions.
func (t *Table) Take(rows []int) (*Table, error) {
	for _, r := range rows {
		if r < 0 || r >= t.nrows {
			return nil, errors.NewValueErrorf("Take", "row index %d out of range [0, %d)", r, t.nrows)
		}
	}
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(rows)
	}
	return NewTable(cols...)
}

// SparseToDense unwraps every sparse column.
func (t *Table) SparseToDense() *Table {
	out := &Table{nrows: t.nrows, cols: make([]*Column, len(t.cols))}
	for i, c := range t.cols {
		out.cols[i] = c.ToDense()
	}
	return out
}

// AllSparse reports whether the table is non-empty and every column is sparse.
func (t *Table) AllSparse() bool {
	if len(t.cols) == 0 {
		return false
	}
	for _, c := range t.cols {
		if !c.dtype.Sparse {
			return false
		}
	}
	return true
}

// Astype converts every column to dt.
func (t *Table) Astype(dt DType) (*Table, error) {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		conv, err := c.Astype(dt)
		if err != nil {
			return nil, err
		}
		cols[i] = conv
	}
	return NewTable(cols...)
}

// String renders the dtypes, one column per line, for debugging.
func (t *Table) String() string {
	var b strings.Builder
	for _, c := range t.cols {
		b.WriteString(c.label.String())
		b.WriteString("\t")
		b.WriteString(c.dtype.String())
		b.WriteString("\n")
	}
	return b.String()
}

// sortScalars orders category values: numbers numerically, strings
// lexicographically, mixed sets by their formatted form.
func sortScalars(vals []any) {
	allNum, allStr := true, true
	for _, v := range vals {
		switch v.(type) {
		case int64, float64:
			allStr = false
		case string:
			allNum = false
		default:
			allNum, allStr = false, false
		}
	}
	sort.SliceStable(vals, func(i, j int) bool {
		switch {
		case allNum:
			a, _ := toFloat(vals[i])
			b, _ := toFloat(vals[j])
			return a < b
		case allStr:
			return vals[i].(string) < vals[j].(string)
		default:
			return FormatScalar(vals[i]) < FormatScalar(vals[j])
		}
	})
}
