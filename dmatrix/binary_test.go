package dmatrix

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dmatrix/frame"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// toBytes saves dm to a temporary file and returns the file contents.
func toBytes(t *testing.T, dm *DMatrix) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Xy.dmatrix")
	require.NoError(t, dm.SaveBinary(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestNullableTypeBinary(t *testing.T) {
	y := []float64{0.6, 0.3, 0.8, 0.1}

	buildInt := func(dt frame.DType) []byte {
		tbl := mustRecords(t, [][]any{{1, 4}, {2, 3}, {nil, nil}, {3, 1}}, "f0", "f1")
		tbl, err := tbl.Astype(dt)
		require.NoError(t, err)
		dm, err := New(tbl, WithLabel(y))
		require.NoError(t, err)
		require.NoError(t, dm.SetFeatureTypes(nil))
		return toBytes(t, dm)
	}
	b0 := buildInt(frame.Float32)
	b1 := buildInt(frame.NullableInt(16))
	assert.Equal(t, b0, b1)

	buildBool := func(dt frame.DType) []byte {
		tbl := mustRecords(t, [][]any{{true, false}, {false, true}, {nil, nil}, {true, true}}, "f0", "f1")
		tbl, err := tbl.Astype(dt)
		require.NoError(t, err)
		dm, err := New(tbl, WithLabel(y))
		require.NoError(t, err)
		require.NoError(t, dm.SetFeatureTypes(nil))
		return toBytes(t, dm)
	}
	errors.SetWarningHandler(func(error) {})
	b2 := buildBool(frame.Boolean)
	b3 := buildBool(frame.Bool)
	// plain bool turns the missing entries into false
	assert.NotEqual(t, b2, b3)
}

func TestBinaryRoundTrip(t *testing.T) {
	tbl := mustRecords(t, [][]any{{1, 2.0, true}, {2, nil, false}, {3, 4.5, true}}, "a", "b", "c")
	dm, err := New(tbl,
		WithLabel([]float64{0, 1, 0}),
		WithWeight([]float64{1, 0.5, 2}),
		WithBaseMargin(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})),
	)
	require.NoError(t, err)

	for _, name := range []string{"plain.dmatrix", "packed.dmatrix.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, dm.SaveBinary(path))

			loaded, err := LoadBinary(path)
			require.NoError(t, err)
			assert.Equal(t, dm.NumRow(), loaded.NumRow())
			assert.Equal(t, dm.NumCol(), loaded.NumCol())
			assert.Equal(t, dm.NumNonMissing(), loaded.NumNonMissing())
			assert.Equal(t, dm.FeatureNames(), loaded.FeatureNames())
			assert.Equal(t, dm.FeatureTypes(), loaded.FeatureTypes())
			assert.Equal(t, dm.Label(), loaded.Label())
			assert.Equal(t, dm.Weight(), loaded.Weight())
			m0, c0 := dm.BaseMargin()
			m1, c1 := loaded.BaseMargin()
			assert.Equal(t, m0, m1)
			assert.Equal(t, c0, c1)
			assert.True(t, math.IsNaN(loaded.Dense().At(1, 1)))

			assert.Equal(t, toBytes(t, dm), toBytes(t, loaded))
		})
	}
}

func TestBinaryCompressedDiffersOnDisk(t *testing.T) {
	dm, err := New(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	require.NoError(t, err)

	dir := t.TempDir()
	plain := filepath.Join(dir, "m.dmatrix")
	packed := filepath.Join(dir, "m.dmatrix.zst")
	require.NoError(t, dm.SaveBinary(plain))
	require.NoError(t, dm.SaveBinary(packed))

	a, err := os.ReadFile(plain)
	require.NoError(t, err)
	b, err := os.ReadFile(packed)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(a, []byte("DMTX")))
	assert.False(t, bytes.HasPrefix(b, []byte("DMTX")))
}

// rawMatrix assembles a binary matrix from a literal JSON header and the
// arrays that follow it.
func rawMatrix(t *testing.T, header string, arrays ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("DMTX")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(header))))
	buf.WriteString(header)
	for _, a := range arrays {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, a))
	}
	return buf.Bytes()
}

func TestReadFromRaw(t *testing.T) {
	data := rawMatrix(t, `{"num_row":2,"num_col":2,"num_nonmissing":3,"label_len":2}`,
		[]uint64{0, 2, 3}, []uint32{0, 1, 1}, []float32{1, 2, 3}, []float32{0, 1})

	var dm DMatrix
	_, err := dm.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, dm.NumRow())
	assert.Equal(t, 3, dm.NumNonMissing())
	assert.Equal(t, []float32{0, 1}, dm.Label())
	assert.True(t, math.IsNaN(dm.Missing()))
}

func TestReadFromInvalid(t *testing.T) {
	tests := map[string][]byte{
		"empty":     nil,
		"bad magic": []byte("NOPE\x01\x00\x00\x00"),
		"truncated": []byte("DMTX\x01\x00\x00\x00\x40\x00\x00\x00{}"),
		"version":   []byte("DMTX\x09\x00\x00\x00\x02\x00\x00\x00{}"),
		"huge row count": rawMatrix(t, `{"num_row":4611686018427387904,"num_col":1}`,
			[]uint64{0}),
		"wrapping row count": rawMatrix(t, `{"num_row":18446744073709551615,"num_col":1}`),
		"huge column count": rawMatrix(t, `{"num_row":1,"num_col":4294967296}`,
			[]uint64{0, 0}),
		"more entries than cells": rawMatrix(t, `{"num_row":2,"num_col":2,"num_nonmissing":5}`,
			[]uint64{0, 2, 5}, []uint32{0, 1, 0, 1, 0}, []float32{1, 2, 3, 4, 5}),
		"entries without columns": rawMatrix(t, `{"num_row":1,"num_col":0,"num_nonmissing":1}`,
			[]uint64{0, 1}, []uint32{0}, []float32{1}),
		"label length": rawMatrix(t, `{"num_row":2,"num_col":1,"label_len":3}`,
			[]uint64{0, 0, 0}, []float32{1, 2, 3}),
		"weight length": rawMatrix(t, `{"num_row":2,"num_col":1,"weight_len":1}`,
			[]uint64{0, 0, 0}, []float32{1}),
		"base margin length": rawMatrix(t, `{"num_row":2,"num_col":1,"base_margin_len":3,"base_margin_cols":2}`,
			[]uint64{0, 0, 0}, []float32{1, 2, 3}),
		"base margin without columns": rawMatrix(t, `{"num_row":2,"num_col":1,"base_margin_len":2}`,
			[]uint64{0, 0, 0}, []float32{1, 2}),
		"row pointer start": rawMatrix(t, `{"num_row":1,"num_col":1,"num_nonmissing":1}`,
			[]uint64{1, 1}, []uint32{0}, []float32{1}),
		"row pointer end": rawMatrix(t, `{"num_row":1,"num_col":1,"num_nonmissing":1}`,
			[]uint64{0, 0}, []uint32{0}, []float32{1}),
		"column index": rawMatrix(t, `{"num_row":1,"num_col":1,"num_nonmissing":1}`,
			[]uint64{0, 1}, []uint32{1}, []float32{1}),
		"missing value": rawMatrix(t, `{"num_row":0,"num_col":1,"missing":"abc"}`,
			[]uint64{0}),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var dm DMatrix
			_, err := dm.ReadFrom(bytes.NewReader(data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidFormat))
		})
	}
}

func TestBinaryKeepsMissing(t *testing.T) {
	tests := []struct {
		name    string
		missing float64
	}{
		{"sentinel", -999},
		{"zero", 0},
		{"infinity", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dm, err := New(mat.NewDense(2, 2, []float64{1, tt.missing, 3, 4}), WithMissing(tt.missing))
			require.NoError(t, err)
			require.Equal(t, 3, dm.NumNonMissing())

			var buf bytes.Buffer
			_, err = dm.WriteTo(&buf)
			require.NoError(t, err)
			var back DMatrix
			_, err = back.ReadFrom(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.missing, back.Missing())

			// table meta read after loading fills missing rows with the same sentinel
			require.NoError(t, back.SetBaseMargin(frame.Float64s("margin", math.NaN(), 0.5)))
			margin, _ := back.BaseMargin()
			assert.Equal(t, []float32{float32(tt.missing), 0.5}, margin)
		})
	}
}

func TestWriteToDeterministic(t *testing.T) {
	dm, err := New(mat.NewDense(2, 2, []float64{1, math.NaN(), 3, 4}), WithFeatureNames("x", "y"))
	require.NoError(t, err)

	var a, b bytes.Buffer
	n, err := dm.WriteTo(&a)
	require.NoError(t, err)
	assert.Equal(t, int64(a.Len()), n)
	_, err = dm.WriteTo(&b)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())

	var back DMatrix
	_, err = back.ReadFrom(&a)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, back.FeatureNames())
	assert.Equal(t, 3, back.NumNonMissing())
}
