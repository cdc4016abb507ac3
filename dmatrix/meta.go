package dmatrix

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dmatrix/frame"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

// ExtractMeta converts label, weight or base margin input into a flat float
// vector and reports its column count.
//
// data may be a *frame.Column, a *frame.Table, []float64, []float32 or a
// mat.Matrix. Label and weight must have exactly one column; base margin may
// have several and is flattened row by row. Missing entries become missing.
// A nil data returns a nil vector.
func ExtractMeta(data any, name string, missing float64) ([]float64, int, error) {
	const op = "ExtractMeta"
	switch name {
	case MetaLabel, MetaWeight, MetaBaseMargin:
	default:
		return nil, 0, errors.NewValueErrorf(op, "unknown meta field %q", name)
	}

	var m mat.Matrix
	switch d := data.(type) {
	case nil:
		return nil, 0, nil
	case *frame.Column:
		t, err := frame.NewTable(d)
		if err != nil {
			return nil, 0, err
		}
		return ExtractMeta(t, name, missing)
	case *frame.Table:
		cfg := TransformConfig{Meta: name, Missing: missing}
		out, _, _, err := TransformTable(d, cfg)
		if err != nil {
			return nil, 0, err
		}
		m = out
	case []float64:
		return append([]float64(nil), d...), 1, nil
	case []float32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out, 1, nil
	case mat.Matrix:
		m = d
	default:
		return nil, 0, errors.NewValueErrorf(op, "cannot use type %T as %s", data, name)
	}

	rows, cols := m.Dims()
	if cols > 1 && name != MetaBaseMargin {
		return nil, 0, errors.NewValueErrorf(op, "%s must have a single column, got %d", name, cols)
	}
	out := make([]float64, 0, rows*cols)
	if csr, ok := m.(*CSR); ok {
		dense := csr.ToDense(missing)
		m = dense
		if rows == 0 || cols == 0 {
			return out, cols, nil
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, m.At(i, j))
		}
	}

	log.GetLoggerWithName("dmatrix").Debug("meta extracted",
		log.OperationKey, log.OperationExtract,
		log.MetaKey, name,
		log.RowsKey, rows,
		log.ColumnsKey, cols,
	)
	return out, cols, nil
}
