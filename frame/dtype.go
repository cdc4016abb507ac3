package frame

import "fmt"

// Kind enumerates the column storage kinds a Table can hold.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindCategorical
	KindNullableInt
	KindNullableFloat
	KindNullableBool
	// KindObject holds arbitrary values (strings, mixed). Numeric consumers reject it.
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindCategorical:
		return "categorical"
	case KindNullableInt:
		return "nullable-int"
	case KindNullableFloat:
		return "nullable-float"
	case KindNullableBool:
		return "nullable-bool"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Nullable reports whether the kind carries an explicit validity mask.
func (k Kind) Nullable() bool {
	return k == KindNullableInt || k == KindNullableFloat || k == KindNullableBool
}

// DType is the dtype tag of a column. Sparse wraps the Int, Float and Bool kinds.
type DType struct {
	Kind     Kind
	Bits     int
	Unsigned bool
	Sparse   bool
}

// Commonly used dtypes.
var (
	Int64    = DType{Kind: KindInt, Bits: 64}
	Int32    = DType{Kind: KindInt, Bits: 32}
	Int16    = DType{Kind: KindInt, Bits: 16}
	Int8     = DType{Kind: KindInt, Bits: 8}
	Uint8    = DType{Kind: KindInt, Bits: 8, Unsigned: true}
	Float64  = DType{Kind: KindFloat, Bits: 64}
	Float32  = DType{Kind: KindFloat, Bits: 32}
	Bool     = DType{Kind: KindBool}
	Category = DType{Kind: KindCategorical}
	Object   = DType{Kind: KindObject}
	// Boolean is the nullable boolean dtype.
	Boolean = DType{Kind: KindNullableBool}
)

// NullableInt returns the nullable integer dtype of the given width (Int8..Int64).
func NullableInt(bits int) DType { return DType{Kind: KindNullableInt, Bits: bits} }

// NullableUint returns the nullable unsigned integer dtype (UInt8..UInt64).
func NullableUint(bits int) DType { return DType{Kind: KindNullableInt, Bits: bits, Unsigned: true} }

// NullableFloat returns the nullable float dtype (Float32, Float64).
func NullableFloat(bits int) DType { return DType{Kind: KindNullableFloat, Bits: bits} }

// SparseOf wraps an Int, Float or Bool dtype.
func SparseOf(inner DType) DType {
	inner.Sparse = true
	return inner
}

// Dense returns the dtype with the sparse wrapper removed.
func (d DType) Dense() DType {
	d.Sparse = false
	return d
}

// String returns the conventional dtype name, e.g. "int64", "Int16", "boolean",
// "category" or "Sparse[float64]".
func (d DType) String() string {
	if d.Sparse {
		return fmt.Sprintf("Sparse[%s]", d.Dense().String())
	}
	switch d.Kind {
	case KindInt:
		if d.Unsigned {
			return fmt.Sprintf("uint%d", d.bits())
		}
		return fmt.Sprintf("int%d", d.bits())
	case KindFloat:
		return fmt.Sprintf("float%d", d.bits())
	case KindBool:
		return "bool"
	case KindCategorical:
		return "category"
	case KindNullableInt:
		if d.Unsigned {
			return fmt.Sprintf("UInt%d", d.bits())
		}
		return fmt.Sprintf("Int%d", d.bits())
	case KindNullableFloat:
		return fmt.Sprintf("Float%d", d.bits())
	case KindNullableBool:
		return "boolean"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

func (d DType) bits() int {
	if d.Bits == 0 {
		return 64
	}
	return d.Bits
}

// sparseFill is the default fill value of a sparse array of this dtype.
func (d DType) sparseFill() float64 {
	if d.Kind == KindFloat {
		return nan
	}
	return 0
}

func (d DType) validSparseInner() bool {
	switch d.Kind {
	case KindInt, KindFloat, KindBool:
		return true
	}
	return false
}
