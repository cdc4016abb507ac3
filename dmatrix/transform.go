// Package dmatrix converts typed tables into numeric training matrices.
//
// TransformTable is the adapter: it maps every column of a frame.Table to
// float64 values according to the column's dtype tag, infers feature names
// from the column labels and feature types from the dtypes, and returns either
// a dense gonum matrix or, when every column is sparse, a CSR matrix in which
// missing entries are omitted.
//
// DMatrix wraps the converted data together with label, weight and base
// margin vectors and supports a binary round trip used to compare conversion
// paths byte for byte.
package dmatrix

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dmatrix/core/parallel"
	"github.com/YuminosukeSato/dmatrix/frame"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

// Meta field names accepted by TransformConfig.Meta and ExtractMeta.
const (
	MetaLabel      = "label"
	MetaWeight     = "weight"
	MetaBaseMargin = "base_margin"
)

// parallelThreshold is the cell count above which the dense buffer is filled
// one goroutine per column chunk.
const parallelThreshold = 1 << 16

// TransformConfig controls TransformTable.
type TransformConfig struct {
	// EnableCategorical accepts categorical columns and encodes their codes.
	EnableCategorical bool
	// FeatureNames overrides the names inferred from the column labels.
	FeatureNames []string
	// FeatureTypes overrides the inferred feature types.
	FeatureTypes []FeatureType
	// Meta is empty for feature data, or one of MetaLabel, MetaWeight,
	// MetaBaseMargin. Meta conversions produce no names or types.
	Meta string
	// Missing is written for every missing entry of a dense result.
	Missing float64
}

// DefaultTransformConfig returns a config with NaN as the missing sentinel.
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{Missing: math.NaN()}
}

// cellReader reads row i of a dense column. ok is false for a missing entry.
type cellReader func(i int) (v float64, ok bool)

// resolveReader picks the conversion rule for a column once, from its dtype.
// The column must already be dense.
func resolveReader(c *frame.Column) cellReader {
	valid := c.Valid()
	switch c.DType().Kind {
	case frame.KindInt:
		ints := c.Ints()
		return func(i int) (float64, bool) { return float64(ints[i]), true }
	case frame.KindNullableInt:
		ints := c.Ints()
		return func(i int) (float64, bool) {
			if valid != nil && !valid[i] {
				return 0, false
			}
			return float64(ints[i]), true
		}
	case frame.KindFloat, frame.KindNullableFloat:
		floats := c.Floats()
		return func(i int) (float64, bool) {
			if valid != nil && !valid[i] {
				return 0, false
			}
			return floats[i], !math.IsNaN(floats[i])
		}
	case frame.KindBool, frame.KindNullableBool:
		bools := c.BoolValues()
		return func(i int) (float64, bool) {
			if valid != nil && !valid[i] {
				return 0, false
			}
			if bools[i] {
				return 1, true
			}
			return 0, true
		}
	case frame.KindCategorical:
		// 欠損のコード -1 は値として出さない
		codes := c.Codes()
		return func(i int) (float64, bool) {
			if codes[i] < 0 {
				return 0, false
			}
			return float64(codes[i]), true
		}
	}
	return nil
}

// TransformTable converts t into a numeric matrix plus feature names and types.
//
// Object columns are always rejected; categorical columns are rejected unless
// cfg.EnableCategorical is set. Both cases return a single ValueError listing
// every offending column. When every column is sparse the result is a *CSR with
// missing entries omitted, otherwise a *mat.Dense with missing entries set to
// cfg.Missing.
func TransformTable(t *frame.Table, cfg TransformConfig) (mat.Matrix, []string, []FeatureType, error) {
	const op = "TransformTable"
	if t == nil {
		return nil, nil, nil, errors.NewValueError(op, "table is nil")
	}
	isMeta := cfg.Meta != ""
	if isMeta && cfg.Meta != MetaBaseMargin && t.NumCols() > 1 {
		return nil, nil, nil, errors.NewValueErrorf(op, "DataFrame for %s cannot have multiple columns", cfg.Meta)
	}

	var invalid []string
	types := make([]FeatureType, t.NumCols())
	for j, c := range t.Columns() {
		ft, ok := featureTypeOf(c.DType())
		if !ok || (ft == FeatureCategorical && !cfg.EnableCategorical) {
			invalid = append(invalid, c.Label().String())
			continue
		}
		types[j] = ft
	}
	if len(invalid) > 0 {
		return nil, nil, nil, errors.InvalidColumnsError(op, invalid, true)
	}

	var names []string
	if !isMeta {
		var err error
		if names, err = resolveNames(t, cfg.FeatureNames); err != nil {
			return nil, nil, nil, err
		}
		if cfg.FeatureTypes != nil {
			if len(cfg.FeatureTypes) != t.NumCols() {
				return nil, nil, nil, errors.NewValueErrorf(op, "feature_types must have the same length as data, got %d for %d columns", len(cfg.FeatureTypes), t.NumCols())
			}
			for _, ft := range cfg.FeatureTypes {
				if !ft.Valid() {
					return nil, nil, nil, errors.NewValueErrorf(op, "unknown feature type %q", string(ft))
				}
			}
			types = append([]FeatureType(nil), cfg.FeatureTypes...)
		}
	} else {
		types = nil
	}

	logger := log.GetLoggerWithName("dmatrix")
	rows, cols := t.NumRows(), t.NumCols()
	sparse := !isMeta && t.AllSparse()

	var m mat.Matrix
	switch {
	case rows == 0 || cols == 0:
		m = &CSR{rows: rows, cols: cols, Indptr: make([]int, rows+1)}
	case sparse:
		m = sparseFromTable(t)
	default:
		m = denseFromTable(t, cfg.Missing)
	}

	logger.Debug("table transformed",
		log.OperationKey, log.OperationTransform,
		log.RowsKey, rows,
		log.ColumnsKey, cols,
		log.SparseKey, sparse,
		log.MetaKey, cfg.Meta,
	)
	return m, names, types, nil
}

// resolveNames returns the explicit names when given, otherwise the stringified
// column labels. Multi-level labels are joined with a space.
func resolveNames(t *frame.Table, explicit []string) ([]string, error) {
	if explicit != nil {
		if len(explicit) != t.NumCols() {
			return nil, errors.NewValueErrorf("TransformTable", "feature_names must have the same length as data, got %d for %d columns", len(explicit), t.NumCols())
		}
		return append([]string(nil), explicit...), nil
	}
	names := make([]string, t.NumCols())
	for j, l := range t.Labels() {
		names[j] = l.String()
	}
	return names, nil
}

func denseFromTable(t *frame.Table, missing float64) *mat.Dense {
	rows, cols := t.NumRows(), t.NumCols()
	buf := make([]float64, rows*cols)
	columns := t.Columns()

	parallel.ParallelizeWithThreshold(cols, parallelThreshold/max(rows, 1), func(start, end int) {
		for j := start; j < end; j++ {
			read := resolveReader(columns[j].ToDense())
			for i := 0; i < rows; i++ {
				v, ok := read(i)
				if !ok {
					v = missing
				}
				buf[i*cols+j] = v
			}
		}
	})
	return mat.NewDense(rows, cols, buf)
}

// sparseFromTable builds a CSR matrix from an all-sparse table. Fill values are
// real values and are stored; only missing entries are dropped.
func sparseFromTable(t *frame.Table) *CSR {
	rows, cols := t.NumRows(), t.NumCols()
	readers := make([]cellReader, cols)
	for j, c := range t.Columns() {
		readers[j] = resolveReader(c.ToDense())
	}
	out := &CSR{rows: rows, cols: cols, Indptr: make([]int, 1, rows+1)}
	for i := 0; i < rows; i++ {
		for j, read := range readers {
			if v, ok := read(i); ok {
				out.Indices = append(out.Indices, j)
				out.Data = append(out.Data, v)
			}
		}
		out.Indptr = append(out.Indptr, len(out.Data))
	}
	return out
}
