package ir

import (
	"fmt"

	"mpsl/internal/types"
)

// Width classifies the storage a value occupies. Scalars use the two
// small classes, vectors pack into SIMD registers with unused high
// lanes undefined.
type Width uint8

const (
	W32 Width = iota
	W64
	W128
	W256
)

var widthNames = [...]string{W32: "b32", W64: "b64", W128: "b128", W256: "b256"}

func (w Width) String() string {
	if int(w) < len(widthNames) {
		return widthNames[w]
	}
	return "b?"
}

// Bytes returns the storage size of the class.
func (w Width) Bytes() uint32 {
	return 4 << w
}

// ElemSize returns the byte size of one lane of the kind. Bool lanes
// occupy a full element, stored as an all-ones or all-zero mask.
func ElemSize(kind types.Kind) uint32 {
	if kind == types.KindDouble {
		return 8
	}
	return 4
}

// ShapeString renders a register shape like f32x4 or i32x1.
func ShapeString(kind types.Kind, lanes uint32) string {
	if kind == types.KindObject {
		return "ptr"
	}
	letter := "?"
	switch kind {
	case types.KindBool:
		letter = "b"
	case types.KindInt:
		letter = "i"
	case types.KindFloat:
		letter = "f"
	case types.KindDouble:
		letter = "d"
	}
	return fmt.Sprintf("%s%dx%d", letter, ElemSize(kind)*8, lanes)
}

// WidthOf picks the narrowest class that holds every lane of the type.
// Matrices are handled one row at a time and never reach here whole.
func WidthOf(t types.TypeInfo) Width {
	t = t.Unqualified()
	lanes := t.Lanes()
	if t.IsMatrix() {
		lanes = t.Cols()
	}
	size := ElemSize(t.Kind()) * lanes
	switch {
	case size <= 4:
		return W32
	case size <= 8:
		return W64
	case size <= 16:
		return W128
	default:
		return W256
	}
}
