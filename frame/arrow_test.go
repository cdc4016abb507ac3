package frame

import (
	"math"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromArrow(t *testing.T) {
	pool := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "i", Type: arrow.PrimitiveTypes.Int16, Nullable: true},
		{Name: "f", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
		{Name: "b", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "s", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()
	b.Field(0).(*array.Int16Builder).AppendValues([]int16{1, 0, 3}, []bool{true, false, true})
	b.Field(1).(*array.Float32Builder).AppendValues([]float32{1.5, 0, 2}, []bool{true, false, true})
	b.Field(2).(*array.BooleanBuilder).AppendValues([]bool{true, false, true}, nil)
	b.Field(3).(*array.StringBuilder).AppendValues([]string{"x", "", "y"}, []bool{true, false, true})
	rec := b.NewRecord()
	defer rec.Release()

	tbl, err := FromArrow(rec)
	require.NoError(t, err)
	assert.Equal(t, []DType{NullableInt(16), Float32, Bool, Object}, tbl.DTypes())

	i, _ := tbl.Column("i")
	assert.True(t, i.IsMissing(1))
	assert.Equal(t, int64(3), i.Value(2))

	f, _ := tbl.Column("f")
	assert.True(t, math.IsNaN(f.Floats()[1]))

	s, _ := tbl.Column("s")
	assert.Equal(t, "y", s.Value(2))
	assert.Nil(t, s.Value(1))
}

func TestFromArrowDictionary(t *testing.T) {
	pool := memory.NewGoAllocator()
	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}
	bldr := array.NewDictionaryBuilder(pool, dt).(*array.BinaryDictionaryBuilder)
	defer bldr.Release()
	require.NoError(t, bldr.AppendString("red"))
	bldr.AppendNull()
	require.NoError(t, bldr.AppendString("blue"))
	require.NoError(t, bldr.AppendString("red"))
	arr := bldr.NewArray()
	defer arr.Release()

	schema := arrow.NewSchema([]arrow.Field{{Name: "color", Type: dt, Nullable: true}}, nil)
	rec := array.NewRecord(schema, []arrow.Array{arr}, int64(arr.Len()))
	defer rec.Release()

	tbl, err := FromArrow(rec)
	require.NoError(t, err)
	c := tbl.Col(0)
	assert.Equal(t, Category, c.DType())
	assert.Equal(t, []any{"red", "blue"}, c.Categories())
	assert.Equal(t, []int32{0, -1, 1, 0}, c.Codes())
}

func TestReadCSV(t *testing.T) {
	data := "a,b,c,d\n1,2.5,true,x\n2,3.5,false,y\n3,4.5,true,x\n"

	tbl, err := ReadCSV(strings.NewReader(data), WithCategorical("d"))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []DType{Int64, Float64, Bool, Category}, tbl.DTypes())

	d, _ := tbl.Column("d")
	assert.Equal(t, []any{"x", "y"}, d.Categories())
}

func TestReadCSVUnknownCategorical(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a\n1\n"), WithCategorical("zzz"))
	require.Error(t, err)
}

func TestReadCSVSemicolon(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a;b\n1;2\n"), WithComma(';'))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumCols())
}
