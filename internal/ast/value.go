package ast

import (
	"math"

	"mpsl/internal/types"
)

// Value holds the lanes of one constant. Each lane stores the raw bit
// pattern of its element: bools as 0/1, ints as zero-extended 32-bit
// two's complement, floats as IEEE bits. The element kind and lane count
// live in the owning expression's TypeInfo.
type Value struct {
	Lanes [8]uint64
}

func ScalarInt(v int32) Value {
	var out Value
	out.SetInt(0, v)
	return out
}

func ScalarFloat(v float32) Value {
	var out Value
	out.SetFloat(0, v)
	return out
}

func ScalarDouble(v float64) Value {
	var out Value
	out.SetDouble(0, v)
	return out
}

func ScalarBool(v bool) Value {
	var out Value
	out.SetBool(0, v)
	return out
}

func (v *Value) Int(lane uint32) int32        { return int32(uint32(v.Lanes[lane])) }
func (v *Value) Float(lane uint32) float32    { return math.Float32frombits(uint32(v.Lanes[lane])) }
func (v *Value) Double(lane uint32) float64   { return math.Float64frombits(v.Lanes[lane]) }
func (v *Value) Bool(lane uint32) bool        { return v.Lanes[lane] != 0 }
func (v *Value) SetInt(lane uint32, x int32)  { v.Lanes[lane] = uint64(uint32(x)) }
func (v *Value) SetBool(lane uint32, x bool) {
	if x {
		v.Lanes[lane] = 1
	} else {
		v.Lanes[lane] = 0
	}
}
func (v *Value) SetFloat(lane uint32, x float32)  { v.Lanes[lane] = uint64(math.Float32bits(x)) }
func (v *Value) SetDouble(lane uint32, x float64) { v.Lanes[lane] = uint64(math.Float64bits(x)) }

// AsDouble reads a lane of any numeric kind as float64.
func (v *Value) AsDouble(kind types.Kind, lane uint32) float64 {
	switch kind {
	case types.KindInt:
		return float64(v.Int(lane))
	case types.KindFloat:
		return float64(v.Float(lane))
	case types.KindDouble:
		return v.Double(lane)
	case types.KindBool:
		if v.Bool(lane) {
			return 1
		}
		return 0
	}
	return 0
}

// Splat broadcasts lane 0 across n lanes.
func (v Value) Splat(n uint32) Value {
	var out Value
	for i := uint32(0); i < n; i++ {
		out.Lanes[i] = v.Lanes[0]
	}
	return out
}

// AllLanes reports whether every one of the first n lanes is non-zero.
func (v *Value) AllLanes(n uint32) bool {
	for i := uint32(0); i < n; i++ {
		if v.Lanes[i] == 0 {
			return false
		}
	}
	return true
}
