package dmatrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dmatrix/frame"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

func mustRecords(t *testing.T, rows [][]any, labels ...any) *frame.Table {
	t.Helper()
	tbl, err := frame.FromRecords(rows, labels...)
	require.NoError(t, err)
	return tbl
}

func TestTransformTableFeatureInference(t *testing.T) {
	tests := []struct {
		name      string
		table     func(t *testing.T) *frame.Table
		wantNames []string
		wantTypes []FeatureType
	}{
		{
			name: "named columns",
			table: func(t *testing.T) *frame.Table {
				return mustRecords(t, [][]any{{1, 2.0, true}, {2, 3.0, false}}, "a", "b", "c")
			},
			wantNames: []string{"a", "b", "c"},
			wantTypes: []FeatureType{FeatureInt, FeatureFloat, FeatureIndicator},
		},
		{
			name: "default range labels",
			table: func(t *testing.T) *frame.Table {
				return mustRecords(t, [][]any{{1, 2.0, true}, {2, 3.0, false}})
			},
			wantNames: []string{"0", "1", "2"},
			wantTypes: []FeatureType{FeatureInt, FeatureFloat, FeatureIndicator},
		},
		{
			name: "integer labels",
			table: func(t *testing.T) *frame.Table {
				return mustRecords(t, [][]any{{1, 2.0, 1}, {2, 3.0, 1}}, 4, 5, 6)
			},
			wantNames: []string{"4", "5", "6"},
			wantTypes: []FeatureType{FeatureInt, FeatureFloat, FeatureInt},
		},
		{
			name: "labels with equal signs",
			table: func(t *testing.T) *frame.Table {
				return mustRecords(t, [][]any{{1, 4}, {2, 5}, {3, 6}}, "A=1", "A=2")
			},
			wantNames: []string{"A=1", "A=2"},
			wantTypes: []FeatureType{FeatureInt, FeatureInt},
		},
		{
			name: "multi-level labels",
			table: func(t *testing.T) *frame.Table {
				tbl := mustRecords(t, [][]any{{1, 2, 3, 4, 5, 6}, {6, 5, 4, 3, 2, 1}})
				out, err := tbl.WithLabels(
					frame.Tuple("a", 1), frame.Tuple("a", 2), frame.Tuple("a", 3),
					frame.Tuple("b", 1), frame.Tuple("b", 2), frame.Tuple("b", 3),
				)
				require.NoError(t, err)
				return out
			},
			wantNames: []string{"a 1", "a 2", "a 3", "b 1", "b 2", "b 3"},
			wantTypes: []FeatureType{FeatureInt, FeatureInt, FeatureInt, FeatureInt, FeatureInt, FeatureInt},
		},
		{
			name: "nullable and sparse dtypes",
			table: func(t *testing.T) *frame.Table {
				one := int64(1)
				yes := true
				sp, err := frame.SparseColumn("s", frame.Float64, []float64{0, 1})
				require.NoError(t, err)
				return frame.MustTable(
					frame.NullableInts("n", 16, &one, nil),
					frame.NullableBools("b", &yes, nil),
					sp,
				)
			},
			wantNames: []string{"n", "b", "s"},
			wantTypes: []FeatureType{FeatureInt, FeatureIndicator, FeatureFloat},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := tt.table(t)
			m, names, types, err := TransformTable(tbl, DefaultTransformConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantTypes, types)
			r, c := m.Dims()
			assert.Equal(t, tbl.NumRows(), r)
			assert.Equal(t, tbl.NumCols(), c)
		})
	}
}

func TestTransformTableIntegerLabelsMatchRange(t *testing.T) {
	rows := [][]any{{1, 1.1}, {2, 2.2}}
	_, intNames, _, err := TransformTable(mustRecords(t, rows, 9, 10), DefaultTransformConfig())
	require.NoError(t, err)
	_, rangeNames, _, err := TransformTable(mustRecords(t, rows, frame.RangeLabels(9, 11, 1)...), DefaultTransformConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"9", "10"}, intNames)
	assert.Equal(t, intNames, rangeNames)
}

func TestTransformTableValues(t *testing.T) {
	tbl := mustRecords(t, [][]any{{1, 2.0, true}, {2, nil, false}}, "a", "b", "c")

	m, _, _, err := TransformTable(tbl, DefaultTransformConfig())
	require.NoError(t, err)
	assert.Equal(t, 2.0, m.At(0, 1))
	assert.Equal(t, 1.0, m.At(0, 2))
	assert.True(t, math.IsNaN(m.At(1, 1)))

	cfg := DefaultTransformConfig()
	cfg.Missing = -999
	m, _, _, err = TransformTable(tbl, cfg)
	require.NoError(t, err)
	assert.Equal(t, -999.0, m.At(1, 1))
}

func TestTransformTableOverrides(t *testing.T) {
	tbl := mustRecords(t, [][]any{{1, 2.0, true}, {2, 3.0, false}}, "a", "b", "c")

	cfg := DefaultTransformConfig()
	cfg.FeatureNames = []string{"x", "y", "z"}
	cfg.FeatureTypes = []FeatureType{FeatureQuantitative, FeatureQuantitative, FeatureQuantitative}
	_, names, types, err := TransformTable(tbl, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, names)
	assert.Equal(t, []FeatureType{"q", "q", "q"}, types)

	cfg.FeatureNames = []string{"x"}
	_, _, _, err = TransformTable(tbl, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsValueError(err))

	cfg.FeatureNames = nil
	cfg.FeatureTypes = []FeatureType{"q", "q", "bogus"}
	_, _, _, err = TransformTable(tbl, cfg)
	require.Error(t, err)
}

func TestTransformTableRejectsObject(t *testing.T) {
	tbl := mustRecords(t, [][]any{{1, 2.0, "x"}, {2, 3.0, "y"}}, "a", "b", "c")

	_, _, _, err := TransformTable(tbl, DefaultTransformConfig())
	require.Error(t, err)
	assert.True(t, errors.IsValueError(err))
	assert.Contains(t, err.Error(), "enable_categorical")
	assert.Contains(t, err.Error(), "Invalid columns: c")

	cfg := DefaultTransformConfig()
	cfg.EnableCategorical = true
	_, _, _, err = TransformTable(tbl, cfg)
	require.Error(t, err, "object columns stay invalid with categorical support")
}

func TestTransformTableGetDummies(t *testing.T) {
	tbl := mustRecords(t, [][]any{{"X", 1}, {"Y", 2}, {"Z", 3}}, "A", "B")
	dummies, err := frame.GetDummies(tbl, "_")
	require.NoError(t, err)

	m, names, types, err := TransformTable(dummies, DefaultTransformConfig())
	require.NoError(t, err)

	want := mat.NewDense(3, 4, []float64{
		1, 1, 0, 0,
		2, 0, 1, 0,
		3, 0, 0, 1,
	})
	assert.True(t, mat.Equal(want, m))
	assert.Equal(t, []string{"B", "A_X", "A_Y", "A_Z"}, names)
	assert.Equal(t, []FeatureType{FeatureInt, FeatureInt, FeatureInt, FeatureInt}, types)
}

func TestTransformTableCategorical(t *testing.T) {
	catCfg := DefaultTransformConfig()
	catCfg.EnableCategorical = true

	t.Run("codes start at zero", func(t *testing.T) {
		tbl := mustRecords(t, [][]any{{"f", 4}, {"o", 3}, {"o", 2}}, "feat_0", "feat_1")
		cat, err := tbl.Col(0).Astype(frame.Category)
		require.NoError(t, err)
		tbl, err = tbl.With(cat)
		require.NoError(t, err)

		m, _, types, err := TransformTable(tbl, catCfg)
		require.NoError(t, err)
		assert.Equal(t, []FeatureType{FeatureCategorical, FeatureInt}, types)
		col := mat.Col(nil, 0, m)
		assert.Equal(t, []float64{0, 1, 1}, col)
	})

	t.Run("missing category is never minus one", func(t *testing.T) {
		c, err := frame.Objects("f0", "a", "b", nil).Astype(frame.Category)
		require.NoError(t, err)

		m, _, _, err := TransformTable(frame.MustTable(c), catCfg)
		require.NoError(t, err)
		col := mat.Col(nil, 0, m)
		for _, v := range col {
			assert.NotEqual(t, -1.0, v)
		}
		assert.True(t, math.IsNaN(col[2]))
	})

	t.Run("rejected without enable_categorical", func(t *testing.T) {
		c, err := frame.Int64s("f0", 3, 4, 5).Astype(frame.Category)
		require.NoError(t, err)

		_, _, _, err = TransformTable(frame.MustTable(c), DefaultTransformConfig())
		require.Error(t, err)
		assert.Regexp(t, ".*enable_categorical.*", err.Error())
	})
}

func TestTransformTableSparse(t *testing.T) {
	a, err := frame.SparseColumn("A", frame.Int64, []float64{0, 3, 0})
	require.NoError(t, err)
	b, err := frame.SparseColumn("B", frame.Float64, []float64{math.NaN(), 0.5, 1.5})
	require.NoError(t, err)
	tbl := frame.MustTable(a, b)

	m, names, types, err := TransformTable(tbl, DefaultTransformConfig())
	require.NoError(t, err)
	csr, ok := m.(*CSR)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, names)
	assert.Equal(t, []FeatureType{FeatureInt, FeatureFloat}, types)
	// 0 fill values are stored, the NaN in row 0 is not
	assert.Equal(t, 5, csr.NNZ())
	assert.Equal(t, []int{0, 1, 3, 5}, csr.Indptr)
	assert.True(t, math.IsNaN(csr.At(0, 1)))

	dense, _, _, err := TransformTable(tbl.SparseToDense(), DefaultTransformConfig())
	require.NoError(t, err)
	_, isDense := dense.(*mat.Dense)
	assert.True(t, isDense)
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			want, got := dense.At(i, j), csr.At(i, j)
			if math.IsNaN(want) {
				assert.True(t, math.IsNaN(got))
				continue
			}
			assert.Equal(t, want, got)
		}
	}

	mixed := frame.MustTable(a, frame.Float64s("C", 1, 2, 3))
	m, _, _, err = TransformTable(mixed, DefaultTransformConfig())
	require.NoError(t, err)
	_, isDense = m.(*mat.Dense)
	assert.True(t, isDense, "a single dense column densifies the result")
}

func TestTransformTableMeta(t *testing.T) {
	cfg := DefaultTransformConfig()
	cfg.Meta = MetaLabel

	t.Run("label must be a single column", func(t *testing.T) {
		tbl := mustRecords(t, [][]any{{"X", 1}, {"Y", 2}, {"Z", 3}}, "A", "B")
		_, _, _, err := TransformTable(tbl, cfg)
		require.Error(t, err)
		assert.True(t, errors.IsValueError(err))
	})

	t.Run("label must have a supported dtype", func(t *testing.T) {
		tbl := frame.MustTable(frame.Objects("A", "a", "b", "c"))
		_, _, _, err := TransformTable(tbl, cfg)
		require.Error(t, err)
	})

	t.Run("int label", func(t *testing.T) {
		tbl := frame.MustTable(frame.Int64s("A", 1, 2, 3))
		m, names, types, err := TransformTable(tbl, cfg)
		require.NoError(t, err)
		assert.Nil(t, names)
		assert.Nil(t, types)
		assert.True(t, mat.Equal(mat.NewDense(3, 1, []float64{1, 2, 3}), m))
	})

	t.Run("base margin may have several columns", func(t *testing.T) {
		bm := cfg
		bm.Meta = MetaBaseMargin
		tbl := frame.MustTable(frame.Float64s("a", 1, 2), frame.Float64s("b", 3, 4))
		m, _, _, err := TransformTable(tbl, bm)
		require.NoError(t, err)
		_, c := m.Dims()
		assert.Equal(t, 2, c)
	})
}

func TestTransformTableEmpty(t *testing.T) {
	m, names, _, err := TransformTable(frame.MustTable(frame.Int64s("a")), DefaultTransformConfig())
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 0, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, []string{"a"}, names)

	_, _, _, err = TransformTable(nil, DefaultTransformConfig())
	require.Error(t, err)
}

func TestTransformTableParallelMatchesSequential(t *testing.T) {
	const rows, cols = 2000, 64
	columns := make([]*frame.Column, cols)
	for j := range columns {
		vals := make([]float64, rows)
		for i := range vals {
			vals[i] = float64(i*cols + j)
			if (i+j)%7 == 0 {
				vals[i] = math.NaN()
			}
		}
		columns[j] = frame.Float64s(j, vals...)
	}

	m, _, _, err := TransformTable(frame.MustTable(columns...), DefaultTransformConfig())
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if (i+j)%7 == 0 {
				assert.True(t, math.IsNaN(v))
				continue
			}
			if v != float64(i*cols+j) {
				t.Fatalf("cell (%d, %d) = %v", i, j, v)
			}
		}
	}
}
