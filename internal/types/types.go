package types

import (
	"fmt"
)

// Kind is the base element kind of a TypeInfo.
type Kind uint8

const (
	// KindVoid is the type of functions that return nothing.
	KindVoid Kind = iota
	// KindBool is a 32-bit lane mask.
	KindBool
	// KindInt is a signed 32-bit integer lane.
	KindInt
	// KindFloat is a 32-bit float lane.
	KindFloat
	// KindDouble is a 64-bit float lane.
	KindDouble
	// KindObject is the pseudo kind of an argument-object slot; it never
	// participates in arithmetic.
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindObject:
		return "object"
	}
	return "?"
}

// ElemSize returns the in-memory lane size in bytes. Bool lanes are stored
// as 32-bit masks, the shader convention.
func (k Kind) ElemSize() uint32 {
	if k == KindDouble {
		return 8
	}
	return 4
}

// IsFP reports whether lanes of this kind hold floating-point values.
func (k Kind) IsFP() bool {
	return k == KindFloat || k == KindDouble
}

// TypeInfo is the packed 32-bit type descriptor.
//
// bits  0..3   base kind
// bits  4..7   lane count {1,2,3,4,8}; for matrices, the column count
// bits  8..11  matrix row count, 0 when the type is not a matrix
// bit   16     reference qualifier (lvalue)
// bit   17     const qualifier
type TypeInfo uint32

const (
	kindMask  TypeInfo = 0x0000000F
	laneShift          = 4
	laneMask  TypeInfo = 0x000000F0
	rowShift           = 8
	rowMask   TypeInfo = 0x00000F00

	// QualRef marks a reference (assignable lvalue).
	QualRef TypeInfo = 1 << 16
	// QualConst marks a value that may not be assigned to.
	QualConst TypeInfo = 1 << 17

	qualMask = QualRef | QualConst
)

// Invalid is the zero TypeInfo: kind void, zero lanes.
const Invalid TypeInfo = 0

// Void is the return type of void functions.
var Void = Make(KindVoid, 1)

// Make builds a scalar or vector descriptor.
func Make(kind Kind, lanes uint32) TypeInfo {
	return TypeInfo(kind) | TypeInfo(lanes)<<laneShift
}

// MakeMatrix builds a rows x cols float matrix descriptor. Only KindFloat
// matrices exist in the language.
func MakeMatrix(kind Kind, rows, cols uint32) TypeInfo {
	return TypeInfo(kind) | TypeInfo(cols)<<laneShift | TypeInfo(rows)<<rowShift
}

// Object is the descriptor of the argument-object pseudo symbol for slot.
func Object(slot uint32) TypeInfo {
	return TypeInfo(KindObject) | TypeInfo(slot)<<laneShift
}

func (t TypeInfo) Kind() Kind      { return Kind(t & kindMask) }
func (t TypeInfo) Lanes() uint32   { return uint32(t&laneMask) >> laneShift }
func (t TypeInfo) Rows() uint32    { return uint32(t&rowMask) >> rowShift }
func (t TypeInfo) Cols() uint32    { return t.Lanes() }
func (t TypeInfo) IsRef() bool     { return t&QualRef != 0 }
func (t TypeInfo) IsConst() bool   { return t&QualConst != 0 }
func (t TypeInfo) IsMatrix() bool  { return t.Rows() != 0 }
func (t TypeInfo) IsVector() bool  { return t.Rows() == 0 && t.Lanes() > 1 }
func (t TypeInfo) IsScalar() bool  { return t.Rows() == 0 && t.Lanes() == 1 }
func (t TypeInfo) IsVoid() bool    { return t.Kind() == KindVoid }
func (t TypeInfo) IsObject() bool  { return t.Kind() == KindObject }
func (t TypeInfo) IsNumeric() bool { return t.Kind() == KindInt || t.Kind().IsFP() }

// ObjectSlot recovers the slot index stored by Object.
func (t TypeInfo) ObjectSlot() uint32 { return t.Lanes() }

// Unqualified strips ref and const.
func (t TypeInfo) Unqualified() TypeInfo { return t &^ qualMask }

// WithRef marks t as an assignable reference.
func (t TypeInfo) WithRef() TypeInfo { return t | QualRef }

// WithConst marks t as const.
func (t TypeInfo) WithConst() TypeInfo { return t | QualConst }

// Deref drops the reference qualifier, yielding the value type.
func (t TypeInfo) Deref() TypeInfo { return t &^ TypeInfo(QualRef) }

// Elem returns the scalar descriptor of one lane, qualifiers dropped.
func (t TypeInfo) Elem() TypeInfo { return Make(t.Kind(), 1) }

// Row returns the vector descriptor of one matrix row.
func (t TypeInfo) Row() TypeInfo { return Make(t.Kind(), t.Cols()) }

// Size returns the in-memory size in bytes: lanes x elem for vectors, the
// full row-major block for matrices.
func (t TypeInfo) Size() uint32 {
	n := t.Lanes()
	if r := t.Rows(); r != 0 {
		n *= r
	}
	return n * t.Kind().ElemSize()
}

// SameShape reports equal kind, lanes and rows, ignoring qualifiers.
func (t TypeInfo) SameShape(other TypeInfo) bool {
	return t.Unqualified() == other.Unqualified()
}

func (t TypeInfo) String() string {
	k := t.Kind()
	switch {
	case t.IsMatrix():
		return fmt.Sprintf("%s%dx%d", k, t.Rows(), t.Cols())
	case t.Lanes() > 1:
		return fmt.Sprintf("%s%d", k, t.Lanes())
	default:
		return k.String()
	}
}

// Valid reports whether the descriptor denotes a representable type: known
// kind, lane count in {1,2,3,4,8}, total width <= 256 bits, matrix dims in
// [2..4] and float-only.
func (t TypeInfo) Valid() bool {
	k := t.Kind()
	if k > KindObject {
		return false
	}
	if k == KindObject {
		return true
	}
	lanes := t.Lanes()
	switch lanes {
	case 1, 2, 3, 4:
	case 8:
		if k == KindDouble {
			return false
		}
	default:
		return false
	}
	if r := t.Rows(); r != 0 {
		if k != KindFloat || r < 2 || r > 4 || lanes < 2 || lanes > 4 {
			return false
		}
	}
	return true
}
