package dmatrix

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// CSR is a compressed sparse row matrix. Entries that are not stored are
// missing, so At returns NaN for them rather than zero.
type CSR struct {
	rows, cols int
	Indptr     []int
	Indices    []int
	Data       []float64
}

var _ mat.Matrix = (*CSR)(nil)

// NewCSR validates and wraps CSR arrays. Column indices within a row must be
// strictly increasing.
func NewCSR(rows, cols int, indptr, indices []int, data []float64) (*CSR, error) {
	const op = "NewCSR"
	if len(indptr) != rows+1 {
		return nil, errors.NewValueErrorf(op, "indptr has length %d, expected %d", len(indptr), rows+1)
	}
	if len(indices) != len(data) {
		return nil, errors.NewValueErrorf(op, "indices and data differ in length (%d != %d)", len(indices), len(data))
	}
	if indptr[0] != 0 || indptr[rows] != len(data) {
		return nil, errors.NewValueError(op, "indptr must start at 0 and end at the number of stored entries")
	}
	for i := 0; i < rows; i++ {
		if indptr[i] > indptr[i+1] {
			return nil, errors.NewValueErrorf(op, "indptr decreases at row %d", i)
		}
		for k := indptr[i]; k < indptr[i+1]; k++ {
			if indices[k] < 0 || indices[k] >= cols {
				return nil, errors.NewValueErrorf(op, "column index %d out of range at row %d", indices[k], i)
			}
			if k > indptr[i] && indices[k] <= indices[k-1] {
				return nil, errors.NewValueErrorf(op, "column indices of row %d are not strictly increasing", i)
			}
		}
	}
	return &CSR{rows: rows, cols: cols, Indptr: indptr, Indices: indices, Data: data}, nil
}

// Dims implements mat.Matrix.
func (c *CSR) Dims() (r, cols int) { return c.rows, c.cols }

// At implements mat.Matrix. Missing entries read as NaN.
func (c *CSR) At(i, j int) float64 {
	if i < 0 || i >= c.rows {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= c.cols {
		panic(mat.ErrColAccess)
	}
	idx, vals := c.RowView(i)
	k := sort.SearchInts(idx, j)
	if k < len(idx) && idx[k] == j {
		return vals[k]
	}
	return math.NaN()
}

// T implements mat.Matrix.
func (c *CSR) T() mat.Matrix { return mat.Transpose{Matrix: c} }

// NNZ returns the number of stored entries.
func (c *CSR) NNZ() int { return len(c.Data) }

// RowView returns the stored column indices and values of row i. Read only.
func (c *CSR) RowView(i int) ([]int, []float64) {
	lo, hi := c.Indptr[i], c.Indptr[i+1]
	return c.Indices[lo:hi], c.Data[lo:hi]
}

// ToDense materializes the matrix with missing entries set to missing.
func (c *CSR) ToDense(missing float64) *mat.Dense {
	buf := make([]float64, c.rows*c.cols)
	for i := range buf {
		buf[i] = missing
	}
	for i := 0; i < c.rows; i++ {
		idx, vals := c.RowView(i)
		for k, j := range idx {
			buf[i*c.cols+j] = vals[k]
		}
	}
	if c.rows == 0 || c.cols == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(c.rows, c.cols, buf)
}
