package dmatrix

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dmatrix/frame"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// DMatrix is a training matrix stored as a sparse page: only non-missing
// entries are kept, as float32 values, together with optional label, weight
// and base margin vectors and feature metadata.
type DMatrix struct {
	nrow, ncol int
	missing    float64

	indptr  []int
	indices []uint32
	values  []float32

	featureNames []string
	featureTypes []FeatureType

	label          []float32
	weight         []float32
	baseMargin     []float32
	baseMarginCols int
}

type options struct {
	label             any
	weight            any
	baseMargin        any
	missing           float64
	featureNames      []string
	featureTypes      []FeatureType
	enableCategorical bool
}

// Option configures New.
type Option func(*options)

// WithLabel sets the label. Any input accepted by ExtractMeta works.
func WithLabel(label any) Option {
	return func(o *options) { o.label = label }
}

// WithWeight sets per-row weights.
func WithWeight(weight any) Option {
	return func(o *options) { o.weight = weight }
}

// WithBaseMargin sets the initial prediction margin.
func WithBaseMargin(margin any) Option {
	return func(o *options) { o.baseMargin = margin }
}

// WithMissing sets the value treated as missing in addition to NaN.
func WithMissing(missing float64) Option {
	return func(o *options) { o.missing = missing }
}

// WithFeatureNames overrides the inferred feature names.
func WithFeatureNames(names ...string) Option {
	return func(o *options) { o.featureNames = names }
}

// WithFeatureTypes overrides the inferred feature types.
func WithFeatureTypes(types ...FeatureType) Option {
	return func(o *options) { o.featureTypes = types }
}

// WithEnableCategorical accepts categorical table columns.
func WithEnableCategorical(enable bool) Option {
	return func(o *options) { o.enableCategorical = enable }
}

// New builds a DMatrix from a *frame.Table, a *frame.Column, a *CSR or any
// mat.Matrix.
//
//	dm, err := dmatrix.New(table, dmatrix.WithLabel(target))
func New(data any, opts ...Option) (*DMatrix, error) {
	o := options{missing: math.NaN()}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		m     mat.Matrix
		names []string
		types []FeatureType
	)
	switch d := data.(type) {
	case *frame.Column:
		t, err := frame.NewTable(d)
		if err != nil {
			return nil, err
		}
		return New(t, opts...)
	case *frame.Table:
		cfg := TransformConfig{
			EnableCategorical: o.enableCategorical,
			FeatureNames:      o.featureNames,
			FeatureTypes:      o.featureTypes,
			Missing:           o.missing,
		}
		var err error
		if m, names, types, err = TransformTable(d, cfg); err != nil {
			return nil, err
		}
	case mat.Matrix:
		m = d
		names, types = o.featureNames, o.featureTypes
	case nil:
		return nil, errors.NewValueError("New", "data is nil")
	default:
		return nil, errors.NewValueErrorf("New", "unsupported data type %T", data)
	}

	dm := fromMatrix(m, o.missing)
	if err := dm.SetFeatureNames(names); err != nil {
		return nil, err
	}
	if err := dm.SetFeatureTypes(types); err != nil {
		return nil, err
	}
	if err := dm.SetLabel(o.label); err != nil {
		return nil, err
	}
	if err := dm.SetWeight(o.weight); err != nil {
		return nil, err
	}
	if err := dm.SetBaseMargin(o.baseMargin); err != nil {
		return nil, err
	}
	return dm, nil
}

func (d *DMatrix) isMissing(v float64) bool {
	return math.IsNaN(v) || v == d.missing
}

func fromMatrix(m mat.Matrix, missing float64) *DMatrix {
	rows, cols := m.Dims()
	d := &DMatrix{nrow: rows, ncol: cols, missing: missing, indptr: make([]int, 1, rows+1)}
	if csr, ok := m.(*CSR); ok {
		for i := 0; i < rows; i++ {
			idx, vals := csr.RowView(i)
			for k, j := range idx {
				d.push(j, vals[k])
			}
			d.indptr = append(d.indptr, len(d.values))
		}
		return d
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d.push(j, m.At(i, j))
		}
		d.indptr = append(d.indptr, len(d.values))
	}
	return d
}

func (d *DMatrix) push(j int, v float64) {
	if d.isMissing(v) {
		return
	}
	d.indices = append(d.indices, uint32(j))
	d.values = append(d.values, float32(v))
}

// NumRow returns the number of rows.
func (d *DMatrix) NumRow() int { return d.nrow }

// NumCol returns the number of columns.
func (d *DMatrix) NumCol() int { return d.ncol }

// NumNonMissing returns the number of stored entries.
func (d *DMatrix) NumNonMissing() int { return len(d.values) }

// Missing returns the missing sentinel used at construction.
func (d *DMatrix) Missing() float64 { return d.missing }

// Row returns the stored column indices and values of row i. Read only.
func (d *DMatrix) Row(i int) ([]uint32, []float32) {
	lo, hi := d.indptr[i], d.indptr[i+1]
	return d.indices[lo:hi], d.values[lo:hi]
}

// Dense materializes the matrix with NaN for missing entries.
func (d *DMatrix) Dense() *mat.Dense {
	if d.nrow == 0 || d.ncol == 0 {
		return &mat.Dense{}
	}
	buf := make([]float64, d.nrow*d.ncol)
	for i := range buf {
		buf[i] = math.NaN()
	}
	for i := 0; i < d.nrow; i++ {
		idx, vals := d.Row(i)
		for k, j := range idx {
			buf[i*d.ncol+int(j)] = float64(vals[k])
		}
	}
	return mat.NewDense(d.nrow, d.ncol, buf)
}

// FeatureNames returns a copy of the feature names, nil when unset.
func (d *DMatrix) FeatureNames() []string {
	if d.featureNames == nil {
		return nil
	}
	return append([]string(nil), d.featureNames...)
}

// SetFeatureNames sets the feature names; nil clears them. Names must be
// unique and may not contain '[', ']' or '<'.
func (d *DMatrix) SetFeatureNames(names []string) error {
	const op = "SetFeatureNames"
	if names == nil {
		d.featureNames = nil
		return nil
	}
	if len(names) != d.ncol {
		return errors.NewValueErrorf(op, "feature_names must have the same length as data, got %d for %d columns", len(names), d.ncol)
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return errors.NewValueErrorf(op, "feature_names must be unique, %q is repeated", n)
		}
		seen[n] = struct{}{}
		if strings.ContainsAny(n, "[]<") {
			return errors.NewValueErrorf(op, "feature_names may not contain [, ] or <, got %q", n)
		}
	}
	d.featureNames = append([]string(nil), names...)
	return nil
}

// FeatureTypes returns a copy of the feature types, nil when unset.
func (d *DMatrix) FeatureTypes() []FeatureType {
	if d.featureTypes == nil {
		return nil
	}
	return append([]FeatureType(nil), d.featureTypes...)
}

// SetFeatureTypes sets the feature types; nil clears them.
func (d *DMatrix) SetFeatureTypes(types []FeatureType) error {
	const op = "SetFeatureTypes"
	if types == nil {
		d.featureTypes = nil
		return nil
	}
	if len(types) != d.ncol {
		return errors.NewValueErrorf(op, "feature_types must have the same length as data, got %d for %d columns", len(types), d.ncol)
	}
	for _, ft := range types {
		if !ft.Valid() {
			return errors.NewValueErrorf(op, "unknown feature type %q", string(ft))
		}
	}
	d.featureTypes = append([]FeatureType(nil), types...)
	return nil
}

// Label returns a copy of the label.
func (d *DMatrix) Label() []float32 { return cloneF32(d.label) }

// Weight returns a copy of the weights.
func (d *DMatrix) Weight() []float32 { return cloneF32(d.weight) }

// BaseMargin returns a copy of the flattened base margin and its column count.
func (d *DMatrix) BaseMargin() ([]float32, int) { return cloneF32(d.baseMargin), d.baseMarginCols }

// SetLabel sets the label from any ExtractMeta input; nil clears it.
// Labels must be finite.
func (d *DMatrix) SetLabel(data any) error {
	vals, _, err := ExtractMeta(data, MetaLabel, d.missing)
	if err != nil {
		return err
	}
	if vals == nil {
		d.label = nil
		return nil
	}
	if len(vals) != d.nrow {
		return errors.NewDimensionError("SetLabel", d.nrow, len(vals), 0)
	}
	if err := errors.CheckFinite("SetLabel", vals); err != nil {
		return err
	}
	d.label = toF32(vals)
	return nil
}

// SetWeight sets per-row weights; nil clears them. Weights must be finite and
// non-negative.
func (d *DMatrix) SetWeight(data any) error {
	const op = "SetWeight"
	vals, _, err := ExtractMeta(data, MetaWeight, d.missing)
	if err != nil {
		return err
	}
	if vals == nil {
		d.weight = nil
		return nil
	}
	if len(vals) != d.nrow {
		return errors.NewDimensionError(op, d.nrow, len(vals), 0)
	}
	if err := errors.CheckFinite(op, vals); err != nil {
		return err
	}
	for i, w := range vals {
		if w < 0 {
			return errors.NewValueErrorf(op, "weights must be non-negative, got %v at index %d", w, i)
		}
	}
	d.weight = toF32(vals)
	return nil
}

// SetBaseMargin sets the base margin; nil clears it. Multi-column input is
// stored row-major.
func (d *DMatrix) SetBaseMargin(data any) error {
	vals, cols, err := ExtractMeta(data, MetaBaseMargin, d.missing)
	if err != nil {
		return err
	}
	if vals == nil {
		d.baseMargin, d.baseMarginCols = nil, 0
		return nil
	}
	if len(vals) != d.nrow*cols {
		return errors.NewDimensionError("SetBaseMargin", d.nrow*cols, len(vals), 0)
	}
	d.baseMargin, d.baseMarginCols = toF32(vals), cols
	return nil
}

// Slice returns a new DMatrix holding the given rows, keeping feature metadata.
func (d *DMatrix) Slice(rows []int) (*DMatrix, error) {
	out := &DMatrix{
		nrow:           len(rows),
		ncol:           d.ncol,
		missing:        d.missing,
		indptr:         make([]int, 1, len(rows)+1),
		featureNames:   d.FeatureNames(),
		featureTypes:   d.FeatureTypes(),
		baseMarginCols: d.baseMarginCols,
	}
	for _, r := range rows {
		if r < 0 || r >= d.nrow {
			return nil, errors.NewValueErrorf("Slice", "row index %d out of range [0, %d)", r, d.nrow)
		}
		idx, vals := d.Row(r)
		out.indices = append(out.indices, idx...)
		out.values = append(out.values, vals...)
		out.indptr = append(out.indptr, len(out.values))
		if d.label != nil {
			out.label = append(out.label, d.label[r])
		}
		if d.weight != nil {
			out.weight = append(out.weight, d.weight[r])
		}
		if d.baseMargin != nil {
			k := d.baseMarginCols
			out.baseMargin = append(out.baseMargin, d.baseMargin[r*k:(r+1)*k]...)
		}
	}
	return out, nil
}

func toF32(vals []float64) []float32 {
	out := make([]float32, len(vals))
	for i, v := range vals {
		out[i] = float32(v)
	}
	return out
}

func cloneF32(vals []float32) []float32 {
	if vals == nil {
		return nil
	}
	return append([]float32(nil), vals...)
}
